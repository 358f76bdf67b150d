package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName   = "lbclottery"
	maxPoolConns      = 10
	healthCheckPeriod = 30 * time.Second
	pingTimeout       = 3 * time.Second
)

// DB wraps the pgx pool shared by every guild's unit of work
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool with session time zone pinned to UTC and verifies it
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	poolConfig.MaxConns = maxPoolConns
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.HealthCheck(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

// HealthCheck pings the database with a short deadline
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		stat := db.Stat()
		return fmt.Errorf("failed to ping database (%d/%d connections acquired): %w",
			stat.AcquiredConns(), stat.MaxConns(), err)
	}
	return nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
