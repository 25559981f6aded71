// Package memory implements the storage interfaces over the embedded document engine. Data is
// persisted to disk when the engine has a persister.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/formx360/formx/internal/engine"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/schema"
)

const (
	companies = "companies"
	users     = "users"
	forms     = "forms"
	responses = "responses"
)

// Store keeps every record as a JSON document of the engine.
type Store struct {
	db  *engine.MemStore
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New wraps db. A nil db gives a purely in-memory store.
func New(db *engine.MemStore) *Store {
	if db == nil {
		db = engine.NewMemStore(nil, nil)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Engine exposes the underlying document engine.
func (s *Store) Engine() *engine.MemStore {
	return s.db
}

// --- CompanyStore -----------------------------------------------------------

func (s *Store) CreateCompany(_ context.Context, c schema.Company) (schema.Company, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.FormIDs == nil {
		c.FormIDs = []string{}
	}
	if err := s.put(companies, c.ID, c); err != nil {
		return schema.Company{}, err
	}
	return c, nil
}

func (s *Store) GetCompany(_ context.Context, id string) (schema.Company, error) {
	return getDoc[schema.Company](s.db, companies, id)
}

func (s *Store) ListCompanies(_ context.Context) ([]schema.Company, error) {
	list, err := listDocs[schema.Company](s.db, companies, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *Store) AttachForm(_ context.Context, companyID, formID string) error {
	return s.db.Update(func(tx *engine.Txn) error {
		c, err := txGet[schema.Company](tx, companies, companyID)
		if err != nil {
			return err
		}
		if c.HasForm(formID) {
			return nil
		}
		c.FormIDs = append(c.FormIDs, formID)
		return txPut(tx, companies, c.ID, c)
	})
}

func (s *Store) DetachForm(_ context.Context, companyID, formID string) error {
	return s.db.Update(func(tx *engine.Txn) error {
		c, err := txGet[schema.Company](tx, companies, companyID)
		if err != nil {
			return err
		}
		kept := make([]string, 0, len(c.FormIDs))
		for _, id := range c.FormIDs {
			if id != formID {
				kept = append(kept, id)
			}
		}
		c.FormIDs = kept
		return txPut(tx, companies, c.ID, c)
	})
}

// --- UserStore ----------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u schema.User) (schema.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	if err := s.put(users, u.ID, u); err != nil {
		return schema.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (schema.User, error) {
	return getDoc[schema.User](s.db, users, id)
}

func (s *Store) ListUsers(_ context.Context) ([]schema.User, error) {
	list, err := listDocs[schema.User](s.db, users, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// --- FormStore ----------------------------------------------------------------

// CreateForm checks the title and inserts the form in one transaction.
func (s *Store) CreateForm(_ context.Context, f schema.Form) (schema.Form, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := s.now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}

	err := s.db.Update(func(tx *engine.Txn) error {
		if titleTaken(tx, f.Title, f.ID) {
			return storage.ErrDuplicateTitle
		}
		return txPut(tx, forms, f.ID, f)
	})
	if err != nil {
		return schema.Form{}, err
	}
	return f, nil
}

func (s *Store) GetForm(_ context.Context, id string) (schema.Form, error) {
	return getDoc[schema.Form](s.db, forms, id)
}

// ListForms returns the forms of a company in creation order.
func (s *Store) ListForms(_ context.Context, companyID string) ([]schema.Form, error) {
	list, err := listDocs(s.db, forms, func(f schema.Form) bool { return f.CompanyID == companyID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// UpdateForm replaces the stored form. A changed title must still be unique.
func (s *Store) UpdateForm(_ context.Context, f schema.Form) (schema.Form, error) {
	err := s.db.Update(func(tx *engine.Txn) error {
		existing, err := txGet[schema.Form](tx, forms, f.ID)
		if err != nil {
			return err
		}
		if f.Title != existing.Title && titleTaken(tx, f.Title, f.ID) {
			return storage.ErrDuplicateTitle
		}
		f.CreatedAt = existing.CreatedAt
		f.UpdatedAt = s.now()
		return txPut(tx, forms, f.ID, f)
	})
	if err != nil {
		return schema.Form{}, err
	}
	return f, nil
}

func (s *Store) DeleteForm(_ context.Context, id string) error {
	return mapErr(s.db.Delete(forms, id))
}

// --- ResponseStore ------------------------------------------------------------

func (s *Store) CreateResponse(_ context.Context, r schema.Response) (schema.Response, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if r.Responses == nil {
		r.Responses = []schema.FieldValue{}
	}
	if err := s.put(responses, r.ID, r); err != nil {
		return schema.Response{}, err
	}
	return r, nil
}

func (s *Store) ListResponsesByForm(_ context.Context, formID string) ([]schema.Response, error) {
	return s.listResponses(func(r schema.Response) bool { return r.FormID == formID })
}

func (s *Store) ListResponsesByUser(_ context.Context, userID string) ([]schema.Response, error) {
	return s.listResponses(func(r schema.Response) bool { return r.UserID == userID })
}

func (s *Store) DeleteResponsesByForm(_ context.Context, formID string) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *engine.Txn) error {
		var ids []string
		var scanErr error
		tx.Scan(responses, func(id string, doc json.RawMessage) bool {
			var r schema.Response
			if scanErr = json.Unmarshal(doc, &r); scanErr != nil {
				return false
			}
			if r.FormID == formID {
				ids = append(ids, id)
			}
			return true
		})
		if scanErr != nil {
			return scanErr
		}
		for _, id := range ids {
			if err := tx.Delete(responses, id); err != nil {
				return err
			}
		}
		removed = len(ids)
		return nil
	})
	return removed, err
}

func (s *Store) listResponses(keep func(schema.Response) bool) ([]schema.Response, error) {
	list, err := listDocs(s.db, responses, keep)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// --- helpers ------------------------------------------------------------------

func (s *Store) put(collection, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Put(collection, id, doc)
}

// titleTaken reports whether a form other than selfID uses title.
func titleTaken(tx *engine.Txn, title, selfID string) bool {
	taken := false
	tx.Scan(forms, func(id string, doc json.RawMessage) bool {
		if id == selfID {
			return true
		}
		var f struct {
			Title string `json:"title"`
		}
		if json.Unmarshal(doc, &f) == nil && f.Title == title {
			taken = true
			return false
		}
		return true
	})
	return taken
}

func getDoc[T any](db engine.Reader, collection, id string) (T, error) {
	var v T
	doc, err := db.Get(collection, id)
	if err != nil {
		return v, mapErr(err)
	}
	err = json.Unmarshal(doc, &v)
	return v, err
}

func listDocs[T any](db engine.Reader, collection string, keep func(T) bool) ([]T, error) {
	docs, err := db.List(collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, err
		}
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func txGet[T any](tx *engine.Txn, collection, id string) (T, error) {
	var v T
	doc, err := tx.Get(collection, id)
	if err != nil {
		return v, mapErr(err)
	}
	err = json.Unmarshal(doc, &v)
	return v, err
}

func txPut(tx *engine.Txn, collection, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tx.Put(collection, id, doc)
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, engine.ErrDocumentNotFound) {
		return storage.ErrNotFound
	}
	return err
}
