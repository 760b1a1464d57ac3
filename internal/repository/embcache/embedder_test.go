package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// mockCache implements the cache.Cache interface for tests.
type mockCache struct {
	getFn func(ctx context.Context, key string) ([]byte, bool)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration)
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, false
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if m.setFn != nil {
		m.setFn(ctx, key, value, ttl)
	}
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockCache) {
	t.Helper()
	mc := &mockCache{}
	ce := New(inner, mc, time.Hour, nil, nil, zap.NewNop())
	return ce, mc
}

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, mc := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	var setCalled bool
	var setTTL time.Duration
	mc.setFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) {
		setCalled = true
		setTTL = ttl
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !setCalled {
		t.Fatal("expected cache put after miss")
	}
	if setTTL != time.Hour {
		t.Errorf("expected TTL=1h, got %v", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	ce, mc := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	mc.getFn = func(_ context.Context, _ string) ([]byte, bool) {
		return cached, true
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("inner embedder called %d times on hit", inner.calls)
	}
}

func TestEmbed_TrimmedTextSharesKey(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ce, _ := newTestCachedEmbedder(t, inner)

	if ce.cacheKey("  what is our policy  ") != ce.cacheKey("what is our policy") {
		t.Error("cache key must ignore surrounding whitespace")
	}
	if ce.cacheKey("alpha") == ce.cacheKey("beta") {
		t.Error("distinct texts must not collide")
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "test text")
	if err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestEmbed_CorruptCacheEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, mc := newTestCachedEmbedder(t, inner)

	mc.getFn = func(_ context.Context, _ string) ([]byte, bool) {
		return []byte{1, 2, 3}, true // not a multiple of 4
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.7 {
		t.Fatalf("expected inner vector after corrupt entry, got %v", result.Embedding)
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.0}

	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("roundtrip mismatch at %d: %v != %v", i, out[i], in[i])
		}
	}
}
