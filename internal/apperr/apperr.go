// Package apperr classifies the errors FormX reports to its callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/formx360/formx/internal/storage"
)

// DuplicateTitleMessage is reported when a form title is already in use.
const DuplicateTitleMessage = "Form with this title already exists."

// Kind is the category of an error as seen by a caller.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindMalformed
	KindValidationFailed
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindMalformed:
		return "malformed"
	case KindValidationFailed:
		return "validation_failed"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is a classified error. Violations is only set for KindValidationFailed.
type Error struct {
	Kind       Kind
	Message    string
	Violations []string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindValidationFailed:
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Violations, "; "))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindMalformed, KindValidationFailed:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// NotFound reports a missing entity, e.g. NotFound("Form").
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Malformed(msg string) *Error {
	return &Error{Kind: KindMalformed, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// ValidationFailed carries the complete list of violation messages.
func ValidationFailed(violations []string) *Error {
	out := make([]string, len(violations))
	copy(out, violations)
	return &Error{Kind: KindValidationFailed, Message: "Validation errors", Violations: out}
}

// Internal wraps an unexpected fault. Its cause is never shown to callers.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// FromStore classifies a repository error. storage.ErrNotFound becomes NotFound(entity) and
// storage.ErrDuplicateTitle becomes the duplicate title conflict; anything else is Internal.
func FromStore(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return NotFound(entity)
	case errors.Is(err, storage.ErrDuplicateTitle):
		return Conflict(DuplicateTitleMessage)
	}
	if _, ok := As(err); ok {
		return err
	}
	return Internal("store "+strings.ToLower(entity), err)
}
