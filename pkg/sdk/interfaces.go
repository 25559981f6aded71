package sdk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/formx360/formx/pkg/schema"
)

var (
	// ErrNotFound is returned when the server answers 404.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the server rejects the bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the server. Errors is set when a submission was rejected.
type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrUnauthorized:
		return e.Status == 401
	}
	return false
}

// Violations returns the rejection messages of err, nil when err is not a rejected submission.
func Violations(err error) []string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Errors
	}
	return nil
}

// FormUpdate is the body of a form update. Nil Title or Description keep the stored value.
type FormUpdate struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	FieldOrder  []string       `json:"field_order"`
	Fields      []schema.Field `json:"fields"`
}

// FormResponse is a response listed for a form, with the submitter resolved.
type FormResponse struct {
	ID        string              `json:"id"`
	FormID    string              `json:"form_id"`
	User      *schema.UserSummary `json:"user_id"`
	Responses []schema.FieldValue `json:"responses"`
	CreatedAt time.Time           `json:"created_at"`
}

// FormRef identifies a form by id and title.
type FormRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UserResponse is a response listed for a user, with the form resolved.
type UserResponse struct {
	ID        string              `json:"id"`
	Form      *FormRef            `json:"form_id"`
	UserID    string              `json:"user_id,omitempty"`
	Responses []schema.FieldValue `json:"responses"`
	CreatedAt time.Time           `json:"created_at"`
}

// --- Functional Interfaces ---

// Directory manages the companies and users forms belong to.
type Directory interface {
	CreateCompany(ctx context.Context, name string) (schema.Company, error)
	GetCompany(ctx context.Context, id string) (schema.Company, error)
	CreateUser(ctx context.Context, name, email string) (schema.User, error)
	GetUser(ctx context.Context, id string) (schema.User, error)
}

// FormManager covers the form lifecycle.
type FormManager interface {
	CreateForm(ctx context.Context, companyID, title, description string) (schema.Form, error)
	ListForms(ctx context.Context, companyID string) ([]schema.Form, error)
	GetForm(ctx context.Context, id string) (schema.Form, error)
	UpdateForm(ctx context.Context, id string, update FormUpdate) (schema.Form, error)
	DeleteForm(ctx context.Context, id string) error
}

// ResponseCollector submits and lists responses.
type ResponseCollector interface {
	Submit(ctx context.Context, formID, userID string, answers []schema.FieldValue) (schema.Response, error)
	ListFormResponses(ctx context.Context, formID string) ([]FormResponse, error)
	ListUserResponses(ctx context.Context, userID string) ([]UserResponse, error)
}

// --- Composite Interface ---

// FormX is the complete client surface of a FormX server.
type FormX interface {
	Directory
	FormManager
	ResponseCollector
}
