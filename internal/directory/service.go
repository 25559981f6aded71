// Package directory manages the companies and user accounts that own forms and submit
// responses.
package directory

import (
	"context"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/apperr"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/schema"
)

// Service manages companies and users.
type Service struct {
	companies storage.CompanyStore
	users     storage.UserStore
	log       logrus.FieldLogger
}

// New constructs a directory service.
func New(companies storage.CompanyStore, users storage.UserStore, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{companies: companies, users: users, log: log.WithField("service", "directory")}
}

// CreateCompany registers a company owned by ownerUserID.
func (s *Service) CreateCompany(ctx context.Context, name, ownerUserID string) (schema.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schema.Company{}, apperr.Malformed("Company name is required.")
	}

	c, err := s.companies.CreateCompany(ctx, schema.Company{Name: name, OwnerUserID: ownerUserID})
	if err != nil {
		return schema.Company{}, apperr.FromStore(err, "Company")
	}
	s.log.WithField("company_id", c.ID).WithField("user_id", ownerUserID).Info("company created")
	return c, nil
}

func (s *Service) GetCompany(ctx context.Context, id string) (schema.Company, error) {
	c, err := s.companies.GetCompany(ctx, id)
	if err != nil {
		return schema.Company{}, apperr.FromStore(err, "Company")
	}
	return c, nil
}

// CreateUser registers an account. The email must be a plain address.
func (s *Service) CreateUser(ctx context.Context, name, email string) (schema.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return schema.User{}, apperr.Malformed("User name is required.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return schema.User{}, apperr.Malformed("A valid email is required.")
	}

	u, err := s.users.CreateUser(ctx, schema.User{Name: name, Email: email})
	if err != nil {
		return schema.User{}, apperr.FromStore(err, "User")
	}
	s.log.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (schema.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return schema.User{}, apperr.FromStore(err, "User")
	}
	return u, nil
}
