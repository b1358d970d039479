// Package db defines the storage contracts consumed by the repositories.
package db

import (
	"context"
	"time"
)

// KVStore is the cache-store facade. Consumers use narrow sub-interfaces (ISP).
type KVStore interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
