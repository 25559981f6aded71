// Package storage declares the repositories the FormX services persist through.
package storage

import (
	"context"
	"errors"

	"github.com/formx360/formx/pkg/schema"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTitle is returned when another form already uses the title.
	ErrDuplicateTitle = errors.New("duplicate form title")
)

// CompanyStore persists companies and the list of forms each one owns.
type CompanyStore interface {
	CreateCompany(ctx context.Context, c schema.Company) (schema.Company, error)
	GetCompany(ctx context.Context, id string) (schema.Company, error)
	ListCompanies(ctx context.Context) ([]schema.Company, error)
	// AttachForm appends formID to the company's forms. Attaching twice is a no-op.
	AttachForm(ctx context.Context, companyID, formID string) error
	DetachForm(ctx context.Context, companyID, formID string) error
}

// UserStore persists registered accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u schema.User) (schema.User, error)
	GetUser(ctx context.Context, id string) (schema.User, error)
	ListUsers(ctx context.Context) ([]schema.User, error)
}

// FormStore persists form definitions. Titles are unique across all forms.
type FormStore interface {
	CreateForm(ctx context.Context, f schema.Form) (schema.Form, error)
	GetForm(ctx context.Context, id string) (schema.Form, error)
	ListForms(ctx context.Context, companyID string) ([]schema.Form, error)
	UpdateForm(ctx context.Context, f schema.Form) (schema.Form, error)
	DeleteForm(ctx context.Context, id string) error
}

// ResponseStore persists accepted submissions. Records are append-only.
type ResponseStore interface {
	CreateResponse(ctx context.Context, r schema.Response) (schema.Response, error)
	ListResponsesByForm(ctx context.Context, formID string) ([]schema.Response, error)
	ListResponsesByUser(ctx context.Context, userID string) ([]schema.Response, error)
	DeleteResponsesByForm(ctx context.Context, formID string) (int, error)
}

// Store bundles every repository of one backend.
type Store interface {
	CompanyStore
	UserStore
	FormStore
	ResponseStore
}
