// Package store opens the database of the meters demo.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Alp4ka/keyset/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is an explicit database handle. Close it when done.
type Store struct {
	db     *gorm.DB
	driver string
}

// Open connects to the database described by cfg.
func Open(cfg config.DBConfig, debug bool) (*Store, error) {
	dialector, err := dialectorOf(cfg)
	if err != nil {
		return nil, err
	}

	return New(dialector, cfg.Driver, debug)
}

// New wraps an existing dialector. It is used by Open and by tests that
// supply a mocked connection.
func New(dialector gorm.Dialector, driver string, debug bool) (*Store, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	slog.Debug("Database opened", "driver", driver)

	return &Store{db: db, driver: driver}, nil
}

func dialectorOf(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: unknown db driver '%s'", config.ErrInvalidConfig, cfg.Driver)
	}
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// DB returns the underlying connection. Prefer WithSession for units of
// work.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithSession runs fn inside a transaction bound to ctx. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) WithSession(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return sqlDB.Close()
}

// NewPool opens a pgx connection pool for raw PostgreSQL access and checks
// it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return pool, nil
}
