// Package respcache caches fully scored retrieval responses keyed by
// query, result count, and role.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/metrics"
	"github.com/kailas-cloud/hybridex/internal/repository/cache"
)

var cacheKeyPrefix = domain.KeyPrefix + "resp_cache:"

// ResponseCache stores ranked passage lists per (query, k, role).
// The role is part of the key so cached responses never leak across
// access boundaries.
type ResponseCache struct {
	cache      cache.Cache
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	tracker    *metrics.Tracker
	logger     *zap.Logger
}

// New creates a response cache with the given TTL.
func New(
	c cache.Cache,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	tracker *metrics.Tracker,
	logger *zap.Logger,
) *ResponseCache {
	return &ResponseCache{
		cache:      c,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		tracker:    tracker,
		logger:     logger,
	}
}

// Get returns the cached response for (query, k, role), if any.
func (r *ResponseCache) Get(ctx context.Context, query string, k int, role string) ([]domain.ScoredPassage, bool) {
	key := r.cacheKey(query, k, role)

	data, ok := r.cache.Get(ctx, key)
	if !ok {
		r.incCache("miss")
		r.tracker.CacheMiss()
		return nil, false
	}

	var passages []domain.ScoredPassage
	if err := json.Unmarshal(data, &passages); err != nil {
		r.logger.Warn("Failed to decode cached response", zap.String("key", key), zap.Error(err))
		r.incCache("miss")
		r.tracker.CacheMiss()
		return nil, false
	}

	r.incCache("hit")
	r.tracker.CacheHit()
	return passages, true
}

// Set stores the response for (query, k, role). Encoding failures are
// logged and dropped.
func (r *ResponseCache) Set(ctx context.Context, query string, k int, role string, passages []domain.ScoredPassage) {
	data, err := json.Marshal(passages)
	if err != nil {
		r.logger.Warn("Failed to encode response for caching", zap.Error(err))
		return
	}
	r.cache.Set(ctx, r.cacheKey(query, k, role), data, r.ttl)
}

func (r *ResponseCache) incCache(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues("response", result).Inc()
	}
}

func (r *ResponseCache) cacheKey(query string, k int, role string) string {
	raw := fmt.Sprintf("%s|%d|%s", strings.TrimSpace(query), k, role)
	h := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
