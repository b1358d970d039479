// Package cache is the result cache over the key-value store. Every operation
// is non-throwing to callers: a store outage degrades to Unavailable / no-op,
// never a failed retrieval.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/db"
)

// KeyPrefix namespaces all cinerag keys in the shared store.
const KeyPrefix = "cinerag:"

// Counter keys for hit/miss observability, kept in the store itself so the
// stats endpoint can report them across process restarts.
const (
	hitsCounterKey   = KeyPrefix + "cache:stats:hits"
	missesCounterKey = KeyPrefix + "cache:stats:misses"
)

// Status distinguishes "no data" from "cache is down" without relying on
// logging side effects.
type Status string

// Lookup outcomes.
const (
	Hit         Status = "hit"
	Miss        Status = "miss"
	Unavailable Status = "unavailable"
)

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Cache wraps a KV store with hashed keys, TTL expiry, and hit/miss counters.
type Cache struct {
	store  store
	total  *prometheus.CounterVec
	logger *zap.Logger
}

// New creates a cache. total is a counter vec with label "result"
// ("hit"/"miss"/"unavailable"), passed explicitly.
func New(s store, total *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, total: total, logger: logger}
}

// Key derives a deterministic cache key from a namespace and content.
func Key(namespace, content string) string {
	h := sha256.Sum256([]byte(content))
	return KeyPrefix + namespace + ":" + hex.EncodeToString(h[:])
}

// Get looks up a key. Hit returns the stored bytes; Miss means the key is
// absent or expired; Unavailable means the store itself failed. Hit and Miss
// each bump their counter; Unavailable bumps only the local metric so a down
// cache is not hammered with counter writes.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, Status) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.count(ctx, Miss)
			return nil, Miss
		}
		c.logger.Warn("Cache unavailable", zap.String("key", key), zap.Error(err))
		c.inc(Unavailable)
		return nil, Unavailable
	}

	c.count(ctx, Hit)
	return data, Hit
}

// Set stores a value with a TTL. Failures are logged and dropped; writes are
// idempotent overwrites, so a lost update only costs one extra miss later.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.store.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.logger.Warn("Failed to cache value", zap.String("key", key), zap.Error(err))
	}
}

// Flush removes every key matching the given namespaced patterns. Called on
// bulk data mutation; the TTLs handle everything else.
func (c *Cache) Flush(ctx context.Context, patterns ...string) {
	for _, pattern := range patterns {
		keys, err := c.store.Scan(ctx, KeyPrefix+pattern)
		if err != nil {
			c.logger.Warn("Cache flush scan failed", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		for _, key := range keys {
			if err := c.store.Del(ctx, key); err != nil {
				c.logger.Warn("Cache flush delete failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func (c *Cache) count(ctx context.Context, s Status) {
	c.inc(s)

	counterKey := missesCounterKey
	if s == Hit {
		counterKey = hitsCounterKey
	}
	// Best effort; the prometheus counter above is authoritative.
	if err := c.store.IncrBy(ctx, counterKey, 1); err != nil {
		c.logger.Debug("Failed to bump cache counter", zap.Error(err))
	}
}

func (c *Cache) inc(s Status) {
	if c.total != nil {
		c.total.WithLabelValues(string(s)).Inc()
	}
}
