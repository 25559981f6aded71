// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/schema"
)

const uniqueViolation = "23505"

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// --- CompanyStore -----------------------------------------------------------

const selectCompanies = `
	SELECT c.id, c.name, c.owner_user_id, c.created_at,
	       COALESCE(json_agg(cf.form_id ORDER BY cf.position) FILTER (WHERE cf.form_id IS NOT NULL), '[]')
	FROM companies c
	LEFT JOIN company_forms cf ON cf.company_id = c.id
`

func (s *Store) CreateCompany(ctx context.Context, c schema.Company) (schema.Company, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.FormIDs == nil {
		c.FormIDs = []string{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, owner_user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name, c.OwnerUserID, c.CreatedAt)
	if err != nil {
		return schema.Company{}, err
	}
	for _, formID := range c.FormIDs {
		if err := s.AttachForm(ctx, c.ID, formID); err != nil {
			return schema.Company{}, err
		}
	}
	return c, nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (schema.Company, error) {
	row := s.db.QueryRowContext(ctx, selectCompanies+`
		WHERE c.id = $1
		GROUP BY c.id
	`, id)
	c, err := scanCompany(row)
	if err != nil {
		return schema.Company{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]schema.Company, error) {
	rows, err := s.db.QueryContext(ctx, selectCompanies+`
		GROUP BY c.id
		ORDER BY c.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schema.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) AttachForm(ctx context.Context, companyID, formID string) error {
	if err := s.companyExists(ctx, companyID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_forms (company_id, form_id)
		VALUES ($1, $2)
		ON CONFLICT (company_id, form_id) DO NOTHING
	`, companyID, formID)
	return err
}

func (s *Store) DetachForm(ctx context.Context, companyID, formID string) error {
	if err := s.companyExists(ctx, companyID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM company_forms WHERE company_id = $1 AND form_id = $2
	`, companyID, formID)
	return err
}

func (s *Store) companyExists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM companies WHERE id = $1`, id).Scan(&one)
	return mapErr(err)
}

// --- UserStore ----------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u schema.User) (schema.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Name, u.Email, u.CreatedAt)
	if err != nil {
		return schema.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (schema.User, error) {
	var u schema.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return schema.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]schema.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, created_at FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schema.User
	for rows.Next() {
		var u schema.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// --- FormStore ----------------------------------------------------------------

const selectForms = `
	SELECT id, company_id, owner_user_id, title, description, fields, field_order, created_at, updated_at
	FROM forms
`

func (s *Store) CreateForm(ctx context.Context, f schema.Form) (schema.Form, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}

	fieldsJSON, orderJSON, err := marshalFields(f)
	if err != nil {
		return schema.Form{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forms (id, company_id, owner_user_id, title, description, fields, field_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, f.ID, f.CompanyID, f.OwnerUserID, f.Title, f.Description, fieldsJSON, orderJSON, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return schema.Form{}, mapErr(err)
	}
	return f, nil
}

func (s *Store) GetForm(ctx context.Context, id string) (schema.Form, error) {
	row := s.db.QueryRowContext(ctx, selectForms+`WHERE id = $1`, id)
	f, err := scanForm(row)
	if err != nil {
		return schema.Form{}, mapErr(err)
	}
	return f, nil
}

func (s *Store) ListForms(ctx context.Context, companyID string) ([]schema.Form, error) {
	rows, err := s.db.QueryContext(ctx, selectForms+`WHERE company_id = $1 ORDER BY created_at`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schema.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// UpdateForm replaces the stored form. The title constraint also guards renames.
func (s *Store) UpdateForm(ctx context.Context, f schema.Form) (schema.Form, error) {
	existing, err := s.GetForm(ctx, f.ID)
	if err != nil {
		return schema.Form{}, err
	}
	f.CreatedAt = existing.CreatedAt
	f.UpdatedAt = time.Now().UTC()

	fieldsJSON, orderJSON, err := marshalFields(f)
	if err != nil {
		return schema.Form{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE forms
		SET company_id = $2, owner_user_id = $3, title = $4, description = $5,
		    fields = $6, field_order = $7, updated_at = $8
		WHERE id = $1
	`, f.ID, f.CompanyID, f.OwnerUserID, f.Title, f.Description, fieldsJSON, orderJSON, f.UpdatedAt)
	if err != nil {
		return schema.Form{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return schema.Form{}, storage.ErrNotFound
	}
	return f, nil
}

func (s *Store) DeleteForm(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM forms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- ResponseStore ------------------------------------------------------------

const selectResponses = `
	SELECT id, form_id, user_id, responses, created_at
	FROM responses
`

func (s *Store) CreateResponse(ctx context.Context, r schema.Response) (schema.Response, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Responses == nil {
		r.Responses = []schema.FieldValue{}
	}

	answersJSON, err := json.Marshal(r.Responses)
	if err != nil {
		return schema.Response{}, err
	}
	userID := sql.NullString{String: r.UserID, Valid: r.UserID != ""}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO responses (id, form_id, user_id, responses, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.FormID, userID, answersJSON, r.CreatedAt)
	if err != nil {
		return schema.Response{}, err
	}
	return r, nil
}

func (s *Store) ListResponsesByForm(ctx context.Context, formID string) ([]schema.Response, error) {
	return s.queryResponses(ctx, selectResponses+`WHERE form_id = $1 ORDER BY created_at`, formID)
}

func (s *Store) ListResponsesByUser(ctx context.Context, userID string) ([]schema.Response, error) {
	return s.queryResponses(ctx, selectResponses+`WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *Store) DeleteResponsesByForm(ctx context.Context, formID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE form_id = $1`, formID)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	return int(rows), err
}

func (s *Store) queryResponses(ctx context.Context, query string, arg string) ([]schema.Response, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schema.Response
	for rows.Next() {
		var (
			r          schema.Response
			userID     sql.NullString
			answersRaw []byte
		)
		if err := rows.Scan(&r.ID, &r.FormID, &userID, &answersRaw, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.UserID = userID.String
		if err := json.Unmarshal(answersRaw, &r.Responses); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// --- helpers ------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(row scanner) (schema.Company, error) {
	var (
		c        schema.Company
		formsRaw []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &c.OwnerUserID, &c.CreatedAt, &formsRaw); err != nil {
		return schema.Company{}, err
	}
	c.FormIDs = []string{}
	if len(formsRaw) > 0 {
		if err := json.Unmarshal(formsRaw, &c.FormIDs); err != nil {
			return schema.Company{}, err
		}
	}
	return c, nil
}

func scanForm(row scanner) (schema.Form, error) {
	var (
		f         schema.Form
		fieldsRaw []byte
		orderRaw  []byte
	)
	if err := row.Scan(&f.ID, &f.CompanyID, &f.OwnerUserID, &f.Title, &f.Description,
		&fieldsRaw, &orderRaw, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return schema.Form{}, err
	}
	f.Fields = []schema.Field{}
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &f.Fields); err != nil {
			return schema.Form{}, err
		}
	}
	if len(orderRaw) > 0 {
		if err := json.Unmarshal(orderRaw, &f.FieldOrder); err != nil {
			return schema.Form{}, err
		}
	}
	return f, nil
}

func marshalFields(f schema.Form) (fields, order []byte, err error) {
	if f.Fields == nil {
		f.Fields = []schema.Field{}
	}
	if f.FieldOrder == nil {
		f.FieldOrder = []string{}
	}
	if fields, err = json.Marshal(f.Fields); err != nil {
		return nil, nil, err
	}
	order, err = json.Marshal(f.FieldOrder)
	return fields, order, err
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "forms_title_key" {
		return storage.ErrDuplicateTitle
	}
	return err
}
