package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formx360/formx/internal/engine"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/schema"
)

func TestCompanyFormLinks(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	c, err := s.CreateCompany(ctx, schema.Company{Name: "Acme", OwnerUserID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	assert.Empty(t, c.FormIDs)

	require.NoError(t, s.AttachForm(ctx, c.ID, "f1"))
	require.NoError(t, s.AttachForm(ctx, c.ID, "f2"))
	require.NoError(t, s.AttachForm(ctx, c.ID, "f1"))

	got, err := s.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, got.FormIDs)

	require.NoError(t, s.DetachForm(ctx, c.ID, "f1"))
	got, _ = s.GetCompany(ctx, c.ID)
	assert.Equal(t, []string{"f2"}, got.FormIDs)

	assert.ErrorIs(t, s.AttachForm(ctx, "missing", "f1"), storage.ErrNotFound)
}

func TestFormTitleIsUnique(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	first, err := s.CreateForm(ctx, schema.Form{CompanyID: "c1", Title: "Survey"})
	require.NoError(t, err)

	_, err = s.CreateForm(ctx, schema.Form{CompanyID: "c2", Title: "Survey"})
	assert.ErrorIs(t, err, storage.ErrDuplicateTitle)

	second, err := s.CreateForm(ctx, schema.Form{CompanyID: "c1", Title: "Feedback"})
	require.NoError(t, err)

	second.Title = first.Title
	_, err = s.UpdateForm(ctx, second)
	assert.ErrorIs(t, err, storage.ErrDuplicateTitle)

	// Keeping its own title is not a conflict.
	first.Description = "changed"
	updated, err := s.UpdateForm(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Description)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	list, err := s.ListForms(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestConcurrentCreatesKeepTitlesUnique(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateForm(ctx, schema.Form{Title: "Race"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestFormNotFound(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	_, err := s.GetForm(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateForm(ctx, schema.Form{ID: "nope", Title: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteForm(ctx, "nope"), storage.ErrNotFound)
}

func TestResponses(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	for _, r := range []schema.Response{
		{FormID: "f1", UserID: "u1"},
		{FormID: "f1"},
		{FormID: "f2", UserID: "u1"},
	} {
		_, err := s.CreateResponse(ctx, r)
		require.NoError(t, err)
	}

	byForm, err := s.ListResponsesByForm(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, byForm, 2)

	byUser, err := s.ListResponsesByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	removed, err := s.DeleteResponsesByForm(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	byForm, _ = s.ListResponsesByForm(ctx, "f1")
	assert.Empty(t, byForm)
}

func TestStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p, err := engine.NewPersistence(dir)
	require.NoError(t, err)
	db := engine.NewMemStore(nil, p)
	s := New(db)

	f, err := s.CreateForm(ctx, schema.Form{Title: "Persisted"})
	require.NoError(t, err)
	db.Wait()

	loaded, err := p.LoadAll()
	require.NoError(t, err)
	reopened := New(engine.NewMemStore(loaded, p))

	got, err := reopened.GetForm(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
}
