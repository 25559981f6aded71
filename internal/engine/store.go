// Package engine is the embedded document store behind the file backend.
//
// Documents are JSON values grouped into named collections and addressed by ID. All reads
// and writes go through an in-memory map; every committed change is written back to disk in
// the background, one file per collection.
package engine

import (
	"encoding/json"
	"errors"
)

// ErrDocumentNotFound is returned when a collection has no document with the given ID.
var ErrDocumentNotFound = errors.New("document not found")

// Reader is the read side of the engine.
type Reader interface {
	Get(collection, id string) (json.RawMessage, error)
	List(collection string) ([]json.RawMessage, error)
}

// Writer mutates collections atomically.
type Writer interface {
	Update(fn func(tx *Txn) error) error
}
