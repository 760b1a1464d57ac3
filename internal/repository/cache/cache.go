// Package cache provides a byte-oriented cache used by the embedding and
// response caches. A Redis-backed implementation and a no-op fallback are
// selected at construction time depending on store availability.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/db"
)

// Cache stores opaque byte values under string keys with a TTL.
// A failed lookup is reported as a miss, never as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Store is a Redis-backed Cache. Operational failures degrade to
// always-miss behavior and are logged once per process, not per call.
type Store struct {
	kv     db.KVStore
	logger *zap.Logger

	degradedOnce sync.Once
}

// NewStore creates a cache backed by the given key-value store.
func NewStore(kv db.KVStore, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Get returns the cached value and true on a hit.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logDegraded(err)
		}
		return nil, false
	}
	return val, true
}

// Set writes the value under key with the given TTL. Failures are swallowed:
// the cache is an optimization, not a source of truth.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.kv.SetWithTTL(ctx, key, value, ttl); err != nil {
		s.logDegraded(err)
	}
}

func (s *Store) logDegraded(err error) {
	s.degradedOnce.Do(func() {
		s.logger.Warn("cache store unavailable, operating without caching",
			zap.Error(err))
	})
}

// Noop is a Cache that never hits and discards writes.
type Noop struct{}

// NewNoop creates a cache that always misses.
func NewNoop() Noop { return Noop{} }

func (Noop) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}
