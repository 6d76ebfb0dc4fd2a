package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// Containerized deployments regularly start the API before Postgres accepts
// connections, so connectivity is retried on a fixed interval before giving up.
const (
	connectMaxRetries    = 10
	connectRetryInterval = 10 * time.Second
)

// Connect opens a pgx connection pool with conservative defaults, waiting for
// the database to become reachable.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable defaults for small services; callers can override if needed.
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	var pool *pgxpool.Pool
	backoff := retry.WithMaxRetries(connectMaxRetries, retry.NewConstant(connectRetryInterval))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		p, err := pgxpool.NewWithConfig(attemptCtx, config)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := p.Ping(attemptCtx); err != nil {
			p.Close()
			log.Printf("database not ready, retrying: %v", err)
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("database unreachable after %d retries: %w", connectMaxRetries, err)
	}
	return pool, nil
}

// EnsureSchema creates the tables the API needs when they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	const usersTable = `CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`
	const receiptsTable = `CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		store TEXT NOT NULL,
		total DOUBLE PRECISION NOT NULL,
		date TIMESTAMPTZ NOT NULL
	)`

	for _, q := range []string{usersTable, receiptsTable} {
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}
