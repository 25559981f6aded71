package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/vault"
)

const (
	plainExt  = ".json"
	sealedExt = ".vault"
)

// Persistence handles the disk I/O for the MemStore.
type Persistence struct {
	DataDir string
	box     *vault.Box
	log     logrus.FieldLogger

	mu      sync.Mutex // Protects concurrent writes to the filesystem
	written map[string]uint64
}

// PersistenceOption configures a Persistence.
type PersistenceOption func(*Persistence)

// WithVault encrypts every collection file with box.
func WithVault(box *vault.Box) PersistenceOption {
	return func(p *Persistence) { p.box = box }
}

// WithLogger sets the logger for skipped files.
func WithLogger(l logrus.FieldLogger) PersistenceOption {
	return func(p *Persistence) { p.log = l }
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string, opts ...PersistenceOption) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	p := &Persistence{
		DataDir: dir,
		log:     logrus.StandardLogger(),
		written: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// SaveCollection writes a collection atomically. Snapshots older than the last one written
// for the same collection are dropped, since background saves may finish out of order.
func (p *Persistence) SaveCollection(name string, version uint64, docs map[string]json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if version != 0 && version <= p.written[name] {
		return nil
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}

	ext := plainExt
	if p.box != nil {
		ext = sealedExt
		if data, err = p.box.Seal(data); err != nil {
			return fmt.Errorf("seal %s: %w", name, err)
		}
	}

	filePath := filepath.Join(p.DataDir, name+ext)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return err
	}
	// Readers see either the old file or the new one, never a partial write.
	if err := os.Rename(tempPath, filePath); err != nil {
		return err
	}
	if version != 0 {
		p.written[name] = version
	}
	return nil
}

// LoadAll returns every collection found in the data directory. Unreadable files are logged
// and skipped; sealed files are skipped when no vault is configured.
func (p *Persistence) LoadAll() (map[string]map[string]json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	all := make(map[string]map[string]json.RawMessage)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		ext := filepath.Ext(name)
		if ext != plainExt && ext != sealedExt {
			continue
		}
		collection := strings.TrimSuffix(name, ext)
		log := p.log.WithField("file", name)

		content, err := os.ReadFile(filepath.Join(p.DataDir, name))
		if err != nil {
			log.WithError(err).Warn("could not read collection file")
			continue
		}
		if ext == sealedExt {
			if p.box == nil {
				log.Warn("sealed collection found but no data key configured")
				continue
			}
			if content, err = p.box.Open(content); err != nil {
				log.WithError(err).Warn("could not open sealed collection")
				continue
			}
		}

		var docs map[string]json.RawMessage
		if err := json.Unmarshal(content, &docs); err != nil {
			log.WithError(err).Warn("could not unmarshal collection")
			continue
		}
		all[collection] = docs
	}
	return all, nil
}
