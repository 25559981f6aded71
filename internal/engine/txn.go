package engine

import (
	"encoding/json"
	"sort"
)

// Txn is a set of pending writes on top of the committed data. It is only valid inside the
// Update callback that received it.
type Txn struct {
	m *MemStore
	// nil marks a deletion
	writes map[string]map[string]json.RawMessage
}

func newTxn(m *MemStore) *Txn {
	return &Txn{m: m, writes: make(map[string]map[string]json.RawMessage)}
}

// Get sees the transaction's own writes.
func (tx *Txn) Get(collection, id string) (json.RawMessage, error) {
	if pending, ok := tx.writes[collection][id]; ok {
		if pending == nil {
			return nil, ErrDocumentNotFound
		}
		return cloneDoc(pending), nil
	}
	doc, ok := tx.m.data[collection][id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return cloneDoc(doc), nil
}

func (tx *Txn) Put(collection, id string, doc json.RawMessage) {
	if doc == nil {
		doc = json.RawMessage("null")
	}
	if tx.writes[collection] == nil {
		tx.writes[collection] = make(map[string]json.RawMessage)
	}
	tx.writes[collection][id] = cloneDoc(doc)
}

func (tx *Txn) Delete(collection, id string) error {
	if _, err := tx.Get(collection, id); err != nil {
		return err
	}
	if tx.writes[collection] == nil {
		tx.writes[collection] = make(map[string]json.RawMessage)
	}
	tx.writes[collection][id] = nil
	return nil
}

// Scan calls fn for every document of collection in ID order until fn returns false.
func (tx *Txn) Scan(collection string, fn func(id string, doc json.RawMessage) bool) {
	ids := make(map[string]struct{})
	for id := range tx.m.data[collection] {
		ids[id] = struct{}{}
	}
	for id := range tx.writes[collection] {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	for _, id := range sorted {
		doc, err := tx.Get(collection, id)
		if err != nil {
			continue
		}
		if !fn(id, doc) {
			return
		}
	}
}

// commit applies the writes and returns the names of the changed collections.
func (tx *Txn) commit() []string {
	var dirty []string
	for collection, docs := range tx.writes {
		if len(docs) == 0 {
			continue
		}
		target := tx.m.data[collection]
		if target == nil {
			target = make(map[string]json.RawMessage)
			tx.m.data[collection] = target
		}
		for id, doc := range docs {
			if doc == nil {
				delete(target, id)
				continue
			}
			target[id] = doc
		}
		dirty = append(dirty, collection)
	}
	sort.Strings(dirty)
	return dirty
}
