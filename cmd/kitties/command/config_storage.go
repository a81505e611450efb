package command

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/pixil98/go-kitties/internal/storage"
	"github.com/pixil98/go-kitties/internal/storage/postgres"
	"github.com/pixil98/go-kitties/internal/storage/sqlite"
)

type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"
	StorageFile     StorageDriver = "file"
	StorageSqlite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
)

type StorageConfig struct {
	Driver StorageDriver `json:"driver" env:"DRIVER"`
	// Path is the ledger directory for the file driver and the database file
	// for sqlite.
	Path string `json:"path" env:"PATH"`
	DSN  string `json:"dsn" env:"DSN"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Driver {
	case "", StorageMemory:
	case StorageFile:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage: path is required for the file driver"))
		} else if _, err := os.Stat(c.Path); err != nil {
			el.Add(fmt.Errorf("storage: invalid path %q: %w", c.Path, err))
		}
	case StorageSqlite:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage: path is required for the sqlite driver"))
		}
	case StoragePostgres:
		if c.DSN == "" {
			el.Add(fmt.Errorf("storage: dsn is required for the postgres driver"))
		}
	default:
		el.Add(fmt.Errorf("storage: unknown driver %q", c.Driver))
	}

	return el.Err()
}

// buildLedger opens the configured ledger. The returned worker closes it
// when the application stops.
func (c *StorageConfig) buildLedger(ctx context.Context) (kitties.Ledger, *ledgerCloser, error) {
	switch c.Driver {
	case "", StorageMemory:
		slog.Warn("using in-memory ledger, state is lost on exit")
		return storage.NewMemStore(), &ledgerCloser{}, nil
	case StorageFile:
		s, err := storage.NewFileStore(c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file ledger: %w", err)
		}
		return s, &ledgerCloser{}, nil
	case StorageSqlite:
		s, err := sqlite.Open(ctx, c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite ledger: %w", err)
		}
		return s, &ledgerCloser{close: s.Close}, nil
	case StoragePostgres:
		s, err := postgres.Open(ctx, c.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres ledger: %w", err)
		}
		return s, &ledgerCloser{close: func() error { s.Close(); return nil }}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}

// ledgerCloser releases the ledger once the other workers are done with it.
type ledgerCloser struct {
	close func() error
}

func (l *ledgerCloser) Start(ctx context.Context) error {
	<-ctx.Done()
	if l.close == nil {
		return nil
	}
	return l.close()
}
