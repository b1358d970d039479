package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/db"
)

// fakeStore is an in-memory KV store honoring TTLs against an injectable clock.
type fakeStore struct {
	now     time.Time
	entries map[string]fakeEntry
	counts  map[string]int64
	downErr error
}

type fakeEntry struct {
	value     []byte
	expiresAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:     time.Unix(1_700_000_000, 0),
		entries: make(map[string]fakeEntry),
		counts:  make(map[string]int64),
	}
}

func (f *fakeStore) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if f.downErr != nil {
		return nil, f.downErr
	}
	e, ok := f.entries[key]
	if !ok || !f.now.Before(e.expiresAt) {
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

func (f *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if f.downErr != nil {
		return f.downErr
	}
	f.entries[key] = fakeEntry{value: value, expiresAt: f.now.Add(ttl)}
	return nil
}

func (f *fakeStore) IncrBy(_ context.Context, key string, val int64) error {
	if f.downErr != nil {
		return f.downErr
	}
	f.counts[key] += val
	return nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	if f.downErr != nil {
		return f.downErr
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if f.downErr != nil {
		return nil, f.downErr
	}
	// Supports only "prefix*" patterns, which is all the cache uses.
	prefix := pattern[:len(pattern)-1]
	var keys []string
	for k := range f.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func newTestCache(t *testing.T) (*Cache, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	return New(fs, nil, zap.NewNop()), fs
}
