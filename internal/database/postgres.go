package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/pkg/config"
	"github.com/sptool/studioauth/pkg/utils"
)

// PostgresDB wraps a PostgreSQL connection pool for the SQL profile store
// backend.
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB creates a new PostgreSQL connection pool with automatic retry.
//
// Pool settings:
//   - MaxOpenConns: from configuration (default: 25)
//   - MaxIdleConns: half of MaxOpenConns
//   - ConnMaxLifetime: 30 minutes
//
// Parameters:
//   - cfg: PostgreSQL configuration including connection parameters
//
// Returns the connected pool or an error if all retries fail.
//
// Example:
//
//	pg, err := database.NewPostgresDB(&cfg.Postgres)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Postgres connection failed")
//	}
//	defer pg.Close()
func NewPostgresDB(cfg *config.PostgresConfig) (*PostgresDB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Verify connection with retry
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = utils.Retry(ctx, utils.DatabaseRetryConfig(), func() error {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()

		if err := db.PingContext(pingCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to ping Postgres, retrying...")
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("Successfully connected to Postgres")

	return &PostgresDB{db: db}, nil
}

// Close closes the connection pool.
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// DB returns the underlying *sql.DB for wiring the profile store backend.
func (p *PostgresDB) DB() *sql.DB {
	return p.db
}

// Ping checks if PostgreSQL is alive and responsive.
// Used by health check endpoints.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
