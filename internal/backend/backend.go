// Package backend opens the configured storage backend.
package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/config"
	"github.com/formx360/formx/internal/engine"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/internal/storage/memory"
	"github.com/formx360/formx/internal/storage/postgres"
	"github.com/formx360/formx/internal/vault"
)

// Options selects and locates a backend.
type Options struct {
	Kind    string // config.StoreFile or config.StorePostgres
	DataDir string
	Key     []byte // optional AES-256 key for file snapshots
	DSN     string
}

// FromConfig derives Options from the server configuration.
func FromConfig(cfg config.Config) (Options, error) {
	key, err := cfg.VaultKey()
	if err != nil {
		return Options{}, err
	}
	return Options{Kind: cfg.Store, DataDir: cfg.DataDir, Key: key, DSN: cfg.PostgresDSN}, nil
}

// Backend is an open store. Close flushes pending writes and releases connections.
type Backend struct {
	Store storage.Store
	Kind  string

	mem *engine.MemStore
	db  *sql.DB
}

// Open connects to the backend. The postgres schema is migrated before use.
func Open(ctx context.Context, opts Options, log logrus.FieldLogger) (*Backend, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	switch opts.Kind {
	case config.StoreFile:
		return openFile(opts, log)
	case config.StorePostgres:
		db, err := postgres.Open(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		log.Info("postgres store ready")
		return &Backend{Store: postgres.New(db), Kind: opts.Kind, db: db}, nil
	}
	return nil, fmt.Errorf("unknown store %q", opts.Kind)
}

func openFile(opts Options, log logrus.FieldLogger) (*Backend, error) {
	persistOpts := []engine.PersistenceOption{engine.WithLogger(log)}
	if opts.Key != nil {
		box, err := vault.NewBox(opts.Key)
		if err != nil {
			return nil, err
		}
		persistOpts = append(persistOpts, engine.WithVault(box))
	}

	persister, err := engine.NewPersistence(opts.DataDir, persistOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize persistence: %w", err)
	}

	initialData, err := persister.LoadAll()
	if err != nil {
		log.WithError(err).Warn("could not load existing data")
	}

	mem := engine.NewMemStore(initialData, persister)
	mem.SetLogger(log)
	log.WithFields(logrus.Fields{
		"data_dir":    opts.DataDir,
		"collections": len(initialData),
		"encrypted":   opts.Key != nil,
	}).Info("file store ready")

	return &Backend{Store: memory.New(mem), Kind: opts.Kind, mem: mem}, nil
}

// Close waits for snapshot writes of the file store or closes the database.
func (b *Backend) Close() error {
	if b.mem != nil {
		b.mem.Wait()
	}
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
