package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a connection pool and verifies it with a round trip before
// returning. The pool is closed again if verification fails.
func Connect(ctx context.Context, dbURL, applicationName string, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	config, err := PoolConfig(dbURL, applicationName, connectTimeout)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := HealthCheck(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// PoolConfig parses dbURL and applies the pool settings used by the runner.
func PoolConfig(dbURL, applicationName string, connectTimeout time.Duration) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Small pool: the runner only needs connectivity checks and a warm pool
	// for the application it hosts.
	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 15 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	config.ConnConfig.ConnectTimeout = connectTimeout
	config.ConnConfig.RuntimeParams["jit"] = "off"
	if applicationName != "" {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return config, nil
}

// HealthCheck performs a lightweight round trip on the pool.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	var result int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
