package engine

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// MemStore is the thread-safe document engine.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [collection][id]document
	data      map[string]map[string]json.RawMessage
	versions  map[string]uint64
	persister *Persistence
	wg        sync.WaitGroup
	log       logrus.FieldLogger
}

var (
	_ Reader = (*MemStore)(nil)
	_ Writer = (*MemStore)(nil)
)

// NewMemStore initializes a store from existing data (see Persistence.LoadAll).
// A nil persister keeps everything in memory.
func NewMemStore(initialData map[string]map[string]json.RawMessage, p *Persistence) *MemStore {
	if initialData == nil {
		initialData = make(map[string]map[string]json.RawMessage)
	}
	return &MemStore{
		data:      initialData,
		versions:  make(map[string]uint64),
		persister: p,
		log:       logrus.StandardLogger(),
	}
}

// SetLogger replaces the logger used for background persistence failures.
func (m *MemStore) SetLogger(l logrus.FieldLogger) {
	m.log = l
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

func (m *MemStore) Get(collection, id string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[collection][id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return cloneDoc(doc), nil
}

// List returns every document of a collection ordered by ID.
func (m *MemStore) List(collection string) ([]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.data[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneDoc(docs[id]))
	}
	return out, nil
}

// Collections returns the names of all non-empty collections.
func (m *MemStore) Collections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []string
	for name, docs := range m.data {
		if len(docs) > 0 {
			list = append(list, name)
		}
	}
	sort.Strings(list)
	return list
}

// Put stores a single document.
func (m *MemStore) Put(collection, id string, doc json.RawMessage) error {
	return m.Update(func(tx *Txn) error {
		tx.Put(collection, id, doc)
		return nil
	})
}

// Delete removes a single document.
func (m *MemStore) Delete(collection, id string) error {
	return m.Update(func(tx *Txn) error {
		return tx.Delete(collection, id)
	})
}

// Update runs fn under the write lock. Writes made through tx become visible together when
// fn returns nil and are discarded otherwise.
func (m *MemStore) Update(fn func(tx *Txn) error) error {
	m.mu.Lock()
	tx := newTxn(m)
	if err := fn(tx); err != nil {
		m.mu.Unlock()
		return err
	}
	dirty := tx.commit()

	snapshots := make(map[string]snapshot, len(dirty))
	for _, collection := range dirty {
		m.versions[collection]++
		snapshots[collection] = snapshot{
			version: m.versions[collection],
			docs:    m.copyCollection(collection),
		}
	}
	m.mu.Unlock()

	if m.persister == nil {
		return nil
	}
	for collection, snap := range snapshots {
		m.wg.Add(1)
		go func(name string, s snapshot) {
			defer m.wg.Done()
			if err := m.persister.SaveCollection(name, s.version, s.docs); err != nil {
				m.log.WithError(err).WithField("collection", name).Error("persist collection")
			}
		}(collection, snap)
	}
	return nil
}

type snapshot struct {
	version uint64
	docs    map[string]json.RawMessage
}

// copyCollection creates a shallow copy of a collection. Documents are never mutated in
// place, so sharing them is safe.
// It MUST be called while holding m.mu.
func (m *MemStore) copyCollection(collection string) map[string]json.RawMessage {
	original := m.data[collection]
	out := make(map[string]json.RawMessage, len(original))
	for id, doc := range original {
		out[id] = doc
	}
	return out
}

func cloneDoc(doc json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(doc))
	copy(out, doc)
	return out
}
