package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/rocketshoes/cartstore/internal/storage/postgres/migrations"
	"github.com/rocketshoes/cartstore/pkg/database"
)

const (
	selectSnapshot = `SELECT value FROM cart_snapshots WHERE key = $1`
	upsertSnapshot = `INSERT INTO cart_snapshots (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// Store implements storage.Store on the cart_snapshots table.
type Store struct {
	db database.DBTX
}

// NewStore creates a PostgreSQL-backed store. Call Migrate before first use.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	return database.RunMigrations(ctx, s.db, migrations.FS, logger)
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (value string, found bool, err error) {
	ctx, end := database.TraceQuery(ctx, "GetSnapshot", selectSnapshot)
	defer func() { end(err) }()

	err = s.db.QueryRow(ctx, selectSnapshot, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select snapshot %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value under key.
func (s *Store) Set(ctx context.Context, key, value string) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertSnapshot", upsertSnapshot)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, upsertSnapshot, key, value); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
