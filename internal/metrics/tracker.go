package metrics

import (
	"sync"
	"time"
)

// Tracker keeps process-wide retrieval counters: cache hits/misses, query
// count and a rolling average latency via incremental mean. Counters reset
// only on process restart. All methods are safe for concurrent use and
// nil-safe so components can run without instrumentation in tests.
type Tracker struct {
	mu           sync.Mutex
	cacheHits    uint64
	cacheMisses  uint64
	totalQueries uint64
	avgQueryTime time.Duration
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	CacheHits    uint64        `json:"cache_hits"`
	CacheMisses  uint64        `json:"cache_misses"`
	CacheHitRate float64       `json:"cache_hit_rate"`
	TotalQueries uint64        `json:"total_queries"`
	AvgQueryTime time.Duration `json:"avg_query_time"`
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// CacheHit records a cache hit.
func (t *Tracker) CacheHit() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.cacheHits++
	t.mu.Unlock()
}

// CacheMiss records a cache miss.
func (t *Tracker) CacheMiss() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.cacheMisses++
	t.mu.Unlock()
}

// ObserveQuery records one completed query and folds its latency into the
// running average.
func (t *Tracker) ObserveQuery(d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.totalQueries++
	n := time.Duration(t.totalQueries)
	t.avgQueryTime += (d - t.avgQueryTime) / n
	t.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		CacheHits:    t.cacheHits,
		CacheMisses:  t.cacheMisses,
		TotalQueries: t.totalQueries,
		AvgQueryTime: t.avgQueryTime,
	}
	if total := t.cacheHits + t.cacheMisses; total > 0 {
		s.CacheHitRate = float64(t.cacheHits) / float64(total)
	}
	return s
}
