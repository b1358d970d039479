// Package postgres wraps the relational catalog store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"
)

// Config holds connection parameters for the catalog database.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Client wraps the SQL database connection pool.
type Client struct {
	db *sql.DB
}

// NewClient opens a connection pool to the catalog database.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Client{db: db}, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// DB exposes the underlying pool to the repositories.
func (c *Client) DB() *sql.DB {
	return c.db
}
