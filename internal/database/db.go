// Package database manages the PostgreSQL connection pool for the habit tracker.
// It exposes a package-level DB handle that repositories query through, which
// tests replace with a pgxmock pool.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DBInterface defines the subset of *pgxpool.Pool used by the application.
// pgxmock's pool satisfies it as well.
type DBInterface interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)

	// Begin is used by WithTx for multi-row writes.
	Begin(ctx context.Context) (pgx.Tx, error)

	Ping(ctx context.Context) error
	Close()
}

// DB is the pool every repository queries through. Connect installs a
// *pgxpool.Pool; repository tests install a pgxmock pool.
var DB DBInterface

// Config holds database configuration parameters.
type Config struct {
	// URL is a postgres:// connection string.
	URL string

	// MaxConns is the maximum number of connections in the pool
	MaxConns int32

	// MinConns is the minimum number of connections in the pool
	MinConns int32
}

// Connect creates the pool, verifies connectivity and installs it as DB.
//
// Parameters:
//   - ctx: Context bounding the initial ping
//   - cfg: Pool configuration
//   - logger: Logger for lifecycle messages
//
// Returns:
//   - error: Connection error if any, nil on success
//
// Side Effects:
//   - Sets the global DB variable to the created connection pool
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) error {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = pool
	logger.Info("database connected",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)
	return nil
}

// Close releases the pool. Calling it again, or before Connect, is a no-op.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

// IsConnected reports whether the pool exists and answers a ping.
func IsConnected(ctx context.Context) bool {
	if DB == nil {
		return false
	}
	return DB.Ping(ctx) == nil
}

// WithTx runs fn inside a transaction on DB. The transaction commits when fn
// returns nil and rolls back otherwise.
func WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
