package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Postgres is a Store backed by a single key-value table. It exists for
// deployments that already run Postgres and do not want a Redis dependency
// just for the handful of profile entries this service keeps.
//
// Atomicity: SetAll runs inside a transaction and Delete is a single DELETE
// statement, so the "together or not at all" contract of the credential pair
// holds under concurrent writers.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed profile store over an existing
// connection pool. Call Migrate once at startup before first use.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the profile table if it does not exist.
// Idempotent; safe to run on every startup.
func (p *Postgres) Migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS profile_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create profile_entries table: %w", err)
	}

	log.Info().Msg("Profile store schema ready")
	return nil
}

// Get returns the value for key, or ErrNotFound if the key is absent.
func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM profile_entries WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to read profile entry")
		return "", fmt.Errorf("store get error: %w", err)
	}
	return value, nil
}

// Set upserts a single key.
func (p *Postgres) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO profile_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to write profile entry")
		return fmt.Errorf("store set error: %w", err)
	}
	return nil
}

// SetAll upserts every entry inside one transaction.
func (p *Postgres) SetAll(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store begin tx error: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for k, v := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profile_entries (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			k, v,
		); err != nil {
			log.Error().Err(err).Str("key", k).Msg("Failed to write profile entry in tx")
			return fmt.Errorf("store set error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store commit error: %w", err)
	}
	return nil
}

// Delete removes the given keys in a single statement.
func (p *Postgres) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := p.db.ExecContext(ctx,
		`DELETE FROM profile_entries WHERE key = ANY($1)`, pq.Array(keys),
	)
	if err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("Failed to delete profile entries")
		return fmt.Errorf("store delete error: %w", err)
	}
	return nil
}
