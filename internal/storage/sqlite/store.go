// Package sqlite stores the kitty ledger in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/pixil98/go-kitties/internal/storage/sqlite/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var _ kitties.Ledger = (*Store)(nil)

// Store is a SQLite backed kitties.Ledger.
type Store struct {
	queries

	sqlDB *sql.DB
}

// Open opens the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single writer; transitions are serialised by the host anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{queries: queries{q: sqlDB}, sqlDB: sqlDB}, nil
}

func migrate(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, sqlDB, ".")
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Atomic runs fn inside one SQL transaction.
func (s *Store) Atomic(ctx context.Context, fn func(context.Context, kitties.Store) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, &queries{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q querier
}

func (s *queries) KittiesCount(ctx context.Context) (kitties.KittyIndex, bool, error) {
	var count int64
	err := s.q.QueryRowContext(ctx, `SELECT value FROM kitties_count WHERE id = 1`).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query kitties count: %w", err)
	}
	return kitties.KittyIndex(count), true, nil
}

func (s *queries) Kitty(ctx context.Context, id kitties.KittyIndex) (kitties.Kitty, bool, error) {
	var raw []byte
	err := s.q.QueryRowContext(ctx, `SELECT dna FROM kitties WHERE id = ?`, int64(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return kitties.Kitty{}, false, nil
	}
	if err != nil {
		return kitties.Kitty{}, false, fmt.Errorf("query kitty %d: %w", id, err)
	}

	var k kitties.Kitty
	if len(raw) != kitties.DNALen {
		return k, false, fmt.Errorf("kitty %d has %d bytes of dna", id, len(raw))
	}
	copy(k.DNA[:], raw)
	return k, true, nil
}

func (s *queries) Owner(ctx context.Context, id kitties.KittyIndex) (kitties.AccountID, bool, error) {
	var owner string
	err := s.q.QueryRowContext(ctx, `SELECT owner FROM kitty_owners WHERE kitty_id = ?`, int64(id)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query owner of kitty %d: %w", id, err)
	}
	return kitties.AccountID(owner), true, nil
}

func (s *queries) PutKitty(ctx context.Context, id kitties.KittyIndex, k kitties.Kitty) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO kitties (id, dna) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET dna = excluded.dna
`, int64(id), k.DNA[:])
	if err != nil {
		return fmt.Errorf("put kitty %d: %w", id, err)
	}
	return nil
}

func (s *queries) PutOwner(ctx context.Context, id kitties.KittyIndex, owner kitties.AccountID) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO kitty_owners (kitty_id, owner) VALUES (?, ?)
ON CONFLICT (kitty_id) DO UPDATE SET owner = excluded.owner
`, int64(id), string(owner))
	if err != nil {
		return fmt.Errorf("put owner of kitty %d: %w", id, err)
	}
	return nil
}

func (s *queries) SetKittiesCount(ctx context.Context, count kitties.KittyIndex) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO kitties_count (id, value) VALUES (1, ?)
ON CONFLICT (id) DO UPDATE SET value = excluded.value
`, int64(count))
	if err != nil {
		return fmt.Errorf("set kitties count: %w", err)
	}
	return nil
}
