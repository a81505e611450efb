// Package postgres stores the kitty ledger in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/pixil98/go-kitties/internal/storage/postgres/migrations"
	"github.com/pressly/goose/v3"
)

var _ kitties.Ledger = (*Store)(nil)

// Store is a PostgreSQL backed kitties.Ledger.
type Store struct {
	queries

	pool *pgxpool.Pool
}

// Open connects to PostgreSQL, runs migrations and returns a Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := RunMigrations(ctx, dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{queries: queries{q: pool}, pool: pool}, nil
}

// RunMigrations runs goose migrations on the given DSN.
func RunMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Atomic runs fn inside one database transaction.
func (s *Store) Atomic(ctx context.Context, fn func(context.Context, kitties.Store) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &queries{q: tx})
	})
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

type queries struct {
	q querier
}

func (s *queries) KittiesCount(ctx context.Context) (kitties.KittyIndex, bool, error) {
	var count int64
	err := s.q.QueryRow(ctx, `SELECT value FROM kitties_count WHERE id = 1`).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query kitties count: %w", err)
	}
	return kitties.KittyIndex(count), true, nil
}

func (s *queries) Kitty(ctx context.Context, id kitties.KittyIndex) (kitties.Kitty, bool, error) {
	var raw []byte
	err := s.q.QueryRow(ctx, `SELECT dna FROM kitties WHERE id = $1`, int64(id)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
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
	err := s.q.QueryRow(ctx, `SELECT owner FROM kitty_owners WHERE kitty_id = $1`, int64(id)).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query owner of kitty %d: %w", id, err)
	}
	return kitties.AccountID(owner), true, nil
}

func (s *queries) PutKitty(ctx context.Context, id kitties.KittyIndex, k kitties.Kitty) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO kitties (id, dna) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET dna = EXCLUDED.dna`,
		int64(id), k.DNA[:])
	if err != nil {
		return fmt.Errorf("put kitty %d: %w", id, err)
	}
	return nil
}

func (s *queries) PutOwner(ctx context.Context, id kitties.KittyIndex, owner kitties.AccountID) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO kitty_owners (kitty_id, owner) VALUES ($1, $2)
		 ON CONFLICT (kitty_id) DO UPDATE SET owner = EXCLUDED.owner`,
		int64(id), string(owner))
	if err != nil {
		return fmt.Errorf("put owner of kitty %d: %w", id, err)
	}
	return nil
}

func (s *queries) SetKittiesCount(ctx context.Context, count kitties.KittyIndex) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO kitties_count (id, value) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value`,
		int64(count))
	if err != nil {
		return fmt.Errorf("set kitties count: %w", err)
	}
	return nil
}
