package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	citycopilot "github.com/set-night/citycopilot"
)

const applicationName = "citycopilot-sessionapi"

// PoolOptions sizes the pool behind the thread store. Zero values keep the
// pgxpool defaults.
type PoolOptions struct {
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

func poolConfig(databaseURL string, opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("parse database config: min conns %d above max conns %d", opts.MinConns, cfg.MaxConns)
	}
	cfg.MinConns = opts.MinConns

	params := cfg.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	if opts.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	}
	return cfg, nil
}

// NewPool opens and pings the pool for the thread store.
func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("thread store connected", "max_conns", cfg.MaxConns, "min_conns", cfg.MinConns)
	return pool, nil
}

// MigrateThreads brings the threads schema up to the version embedded in the
// binary.
func MigrateThreads(databaseURL string) error {
	src, err := fs.Sub(citycopilot.MigrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	return runMigrations(databaseURL, src)
}

func runMigrations(databaseURL string, migrationsFS fs.FS) error {
	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate threads schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read threads schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("threads schema version %d is dirty", version)
	}
	slog.Info("thread schema migrated", "version", version)
	return nil
}
