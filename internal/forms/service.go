// Package forms is the form lifecycle manager: it creates, reads, updates and deletes form
// definitions and keeps each company's list of forms in step.
package forms

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/apperr"
	"github.com/formx360/formx/internal/metrics"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/schema"
)

// Service manages form definitions.
type Service struct {
	companies storage.CompanyStore
	forms     storage.FormStore
	responses storage.ResponseStore
	log       logrus.FieldLogger
	cascade   bool
}

// Option configures a Service.
type Option func(*Service)

// WithCascadeDelete makes Delete remove the form's responses too.
func WithCascadeDelete(enabled bool) Option {
	return func(s *Service) { s.cascade = enabled }
}

// New constructs a form service.
func New(companies storage.CompanyStore, forms storage.FormStore, responses storage.ResponseStore, log logrus.FieldLogger, opts ...Option) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Service{
		companies: companies,
		forms:     forms,
		responses: responses,
		log:       log.WithField("service", "forms"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the attributes of a new form.
type CreateInput struct {
	CompanyID   string
	OwnerUserID string
	Title       string
	Description string
}

// Create stores an empty form and links it to its company. If linking fails the form is
// removed again, so a failed create leaves nothing behind.
func (s *Service) Create(ctx context.Context, in CreateInput) (schema.Form, error) {
	form, err := s.create(ctx, in)
	s.record("create", err)
	return form, err
}

func (s *Service) create(ctx context.Context, in CreateInput) (schema.Form, error) {
	title := sanitizePlain(in.Title)
	if title == "" {
		return schema.Form{}, apperr.Malformed("Title is required.")
	}
	if _, err := s.companies.GetCompany(ctx, in.CompanyID); err != nil {
		return schema.Form{}, apperr.FromStore(err, "Company")
	}

	created, err := s.forms.CreateForm(ctx, schema.Form{
		CompanyID:   in.CompanyID,
		OwnerUserID: in.OwnerUserID,
		Title:       title,
		Description: sanitizeRich(in.Description),
		Fields:      []schema.Field{},
		FieldOrder:  []string{},
	})
	if err != nil {
		return schema.Form{}, apperr.FromStore(err, "Form")
	}

	if err := s.companies.AttachForm(ctx, in.CompanyID, created.ID); err != nil {
		log := s.log.WithError(err).WithField("form_id", created.ID).WithField("company_id", in.CompanyID)
		if delErr := s.forms.DeleteForm(ctx, created.ID); delErr != nil {
			log.WithField("rollback_error", delErr.Error()).Error("form left without company link")
		} else {
			log.Warn("form creation rolled back")
		}
		return schema.Form{}, apperr.FromStore(err, "Company")
	}

	s.log.WithField("form_id", created.ID).
		WithField("company_id", created.CompanyID).
		WithField("user_id", created.OwnerUserID).
		Info("form created")
	return created, nil
}

// Get returns the form with the given id.
func (s *Service) Get(ctx context.Context, id string) (schema.Form, error) {
	f, err := s.forms.GetForm(ctx, id)
	if err != nil {
		return schema.Form{}, apperr.FromStore(err, "Form")
	}
	return f, nil
}

// ListByCompany returns the forms linked to a company, in link order. Links to forms that no
// longer exist are skipped.
func (s *Service) ListByCompany(ctx context.Context, companyID string) ([]schema.Form, error) {
	c, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return nil, apperr.FromStore(err, "Company")
	}

	out := make([]schema.Form, 0, len(c.FormIDs))
	for _, id := range c.FormIDs {
		f, err := s.forms.GetForm(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.FromStore(err, "Form")
		}
		out = append(out, f)
	}
	return out, nil
}

// UpdateInput replaces a form's content. Nil Title or Description keep the stored value;
// Fields and FieldOrder always replace the stored lists.
type UpdateInput struct {
	Title       *string
	Description *string
	Fields      []schema.Field
	FieldOrder  []string
}

// Update replaces the form's fields wholesale. A changed title must still be unique.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (schema.Form, error) {
	form, err := s.update(ctx, id, in)
	s.record("update", err)
	return form, err
}

func (s *Service) update(ctx context.Context, id string, in UpdateInput) (schema.Form, error) {
	form, err := s.forms.GetForm(ctx, id)
	if err != nil {
		return schema.Form{}, apperr.FromStore(err, "Form")
	}

	if in.Title != nil {
		title := sanitizePlain(*in.Title)
		if title == "" {
			return schema.Form{}, apperr.Malformed("Title is required.")
		}
		form.Title = title
	}
	if in.Description != nil {
		form.Description = sanitizeRich(*in.Description)
	}

	fields, err := prepareFields(in.Fields)
	if err != nil {
		return schema.Form{}, err
	}
	form.Fields = fields
	form.FieldOrder = append([]string{}, in.FieldOrder...)

	updated, err := s.forms.UpdateForm(ctx, form)
	if err != nil {
		return schema.Form{}, apperr.FromStore(err, "Form")
	}
	s.log.WithField("form_id", updated.ID).WithField("fields", len(updated.Fields)).Info("form updated")
	return updated, nil
}

// Delete removes a form and unlinks it from its company. Responses are kept unless cascading
// deletes are enabled.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.delete(ctx, id)
	s.record("delete", err)
	return err
}

func (s *Service) delete(ctx context.Context, id string) error {
	form, err := s.forms.GetForm(ctx, id)
	if err != nil {
		return apperr.FromStore(err, "Form")
	}
	if err := s.forms.DeleteForm(ctx, id); err != nil {
		return apperr.FromStore(err, "Form")
	}

	log := s.log.WithField("form_id", id).WithField("company_id", form.CompanyID)
	if err := s.companies.DetachForm(ctx, form.CompanyID, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.WithError(err).Warn("form deleted but still linked to company")
	}

	if s.cascade {
		removed, err := s.responses.DeleteResponsesByForm(ctx, id)
		if err != nil {
			log.WithError(err).Error("form deleted but its responses were not")
			return apperr.Internal("delete responses", err)
		}
		log = log.WithField("responses_removed", removed)
	}
	log.Info("form deleted")
	return nil
}

func (s *Service) record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	metrics.RecordFormOperation(op, outcome)
}
