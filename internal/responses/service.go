// Package responses accepts submissions against a form and serves them back to form owners
// and submitters.
package responses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/apperr"
	"github.com/formx360/formx/internal/metrics"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/schema"
	"github.com/formx360/formx/pkg/validation"
)

// Service manages response records.
type Service struct {
	forms     storage.FormStore
	users     storage.UserStore
	responses storage.ResponseStore
	log       logrus.FieldLogger
}

// New constructs a response service.
func New(forms storage.FormStore, users storage.UserStore, responses storage.ResponseStore, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{forms: forms, users: users, responses: responses, log: log.WithField("service", "responses")}
}

// SubmitInput is a candidate response set. An empty UserID submits anonymously.
type SubmitInput struct {
	FormID    string
	UserID    string
	Responses []schema.FieldValue
}

// Submit validates the answers against the form and stores them only when every field passes.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (schema.Response, error) {
	if strings.TrimSpace(in.FormID) == "" {
		return schema.Response{}, apperr.Malformed("form_id is required.")
	}
	form, err := s.forms.GetForm(ctx, in.FormID)
	if err != nil {
		return schema.Response{}, apperr.FromStore(err, "Form")
	}

	log := s.log.WithField("form_id", form.ID).WithField("user_id", in.UserID)
	result := validation.Validate(form, in.Responses)
	if !result.OK() {
		metrics.RecordSubmission(false, len(result.Violations()))
		log.WithField("violations", len(result.Violations())).Info("response rejected")
		return schema.Response{}, apperr.ValidationFailed(result.Messages())
	}

	answers := in.Responses
	if answers == nil {
		answers = []schema.FieldValue{}
	}
	created, err := s.responses.CreateResponse(ctx, schema.Response{
		FormID:    form.ID,
		UserID:    in.UserID,
		Responses: answers,
	})
	if err != nil {
		return schema.Response{}, apperr.FromStore(err, "Response")
	}
	metrics.RecordSubmission(true, 0)
	log.WithField("response_id", created.ID).Info("response submitted")
	return created, nil
}

// SubmitterView is a response with its submitter resolved. User is nil for anonymous
// submissions and for accounts that no longer exist.
type SubmitterView struct {
	ID        string              `json:"id"`
	FormID    string              `json:"form_id"`
	User      *schema.UserSummary `json:"user_id"`
	Responses []schema.FieldValue `json:"responses"`
	CreatedAt time.Time           `json:"created_at"`
}

// FormSummary is the part of a form shown next to a user's responses.
type FormSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UserResponseView is a response with its form resolved. Form is nil when the form was deleted.
type UserResponseView struct {
	ID        string              `json:"id"`
	Form      *FormSummary        `json:"form_id"`
	UserID    string              `json:"user_id,omitempty"`
	Responses []schema.FieldValue `json:"responses"`
	CreatedAt time.Time           `json:"created_at"`
}

// ListByForm returns the responses to a form with each submitter's name and email.
func (s *Service) ListByForm(ctx context.Context, formID string) ([]SubmitterView, error) {
	records, err := s.responses.ListResponsesByForm(ctx, formID)
	if err != nil {
		return nil, apperr.FromStore(err, "Response")
	}

	users := make(map[string]*schema.UserSummary)
	out := make([]SubmitterView, 0, len(records))
	for _, r := range records {
		view := SubmitterView{ID: r.ID, FormID: r.FormID, Responses: r.Responses, CreatedAt: r.CreatedAt}
		if !r.Anonymous() {
			summary, seen := users[r.UserID]
			if !seen {
				if summary, err = s.lookupUser(ctx, r.UserID); err != nil {
					return nil, err
				}
				users[r.UserID] = summary
			}
			view.User = summary
		}
		out = append(out, view)
	}
	return out, nil
}

// ListByUser returns a user's responses with the title of each form.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]UserResponseView, error) {
	records, err := s.responses.ListResponsesByUser(ctx, userID)
	if err != nil {
		return nil, apperr.FromStore(err, "Response")
	}

	forms := make(map[string]*FormSummary)
	out := make([]UserResponseView, 0, len(records))
	for _, r := range records {
		summary, seen := forms[r.FormID]
		if !seen {
			if summary, err = s.lookupForm(ctx, r.FormID); err != nil {
				return nil, err
			}
			forms[r.FormID] = summary
		}
		out = append(out, UserResponseView{
			ID:        r.ID,
			Form:      summary,
			UserID:    r.UserID,
			Responses: r.Responses,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) lookupUser(ctx context.Context, id string) (*schema.UserSummary, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromStore(err, "User")
	}
	summary := u.Summary()
	return &summary, nil
}

func (s *Service) lookupForm(ctx context.Context, id string) (*FormSummary, error) {
	f, err := s.forms.GetForm(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromStore(err, "Form")
	}
	return &FormSummary{ID: f.ID, Title: f.Title}, nil
}
