package respcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/domain"
)

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.data[key] = value
}

func newTestResponseCache() (*ResponseCache, *memCache) {
	mc := newMemCache()
	rc := New(mc, 30*time.Minute, nil, nil, zap.NewNop())
	return rc, mc
}

func samplePassages() []domain.ScoredPassage {
	return []domain.ScoredPassage{
		{
			Passage: domain.Passage{
				Content:  "vacation policy allows 20 days",
				Metadata: map[string]string{domain.MetaCategory: "hr", domain.MetaSource: "handbook.md"},
			},
			VectorScore:   0.9,
			KeywordScore:  0.4,
			CombinedScore: 0.75,
		},
	}
}

func TestResponseCache_RoundTrip(t *testing.T) {
	rc, _ := newTestResponseCache()
	ctx := context.Background()

	rc.Set(ctx, "vacation policy", 5, "hr_staff", samplePassages())

	got, ok := rc.Get(ctx, "vacation policy", 5, "hr_staff")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].CombinedScore != 0.75 {
		t.Fatalf("unexpected cached passages: %+v", got)
	}
	if got[0].Category() != "hr" {
		t.Errorf("metadata lost in roundtrip: %+v", got[0].Metadata)
	}
}

func TestResponseCache_KeyIncludesRoleAndK(t *testing.T) {
	rc, _ := newTestResponseCache()
	ctx := context.Background()

	rc.Set(ctx, "vacation policy", 5, "hr_staff", samplePassages())

	if _, ok := rc.Get(ctx, "vacation policy", 5, "finance_user"); ok {
		t.Error("response leaked across roles")
	}
	if _, ok := rc.Get(ctx, "vacation policy", 3, "hr_staff"); ok {
		t.Error("response leaked across k values")
	}
}

func TestResponseCache_TrimmedQuerySharesKey(t *testing.T) {
	rc, _ := newTestResponseCache()
	ctx := context.Background()

	rc.Set(ctx, "vacation policy", 5, "hr_staff", samplePassages())

	if _, ok := rc.Get(ctx, "  vacation policy  ", 5, "hr_staff"); !ok {
		t.Error("expected hit for whitespace-padded query")
	}
}

func TestResponseCache_CorruptEntryIsMiss(t *testing.T) {
	rc, mc := newTestResponseCache()
	ctx := context.Background()

	rc.Set(ctx, "q", 5, "admin", samplePassages())
	for key := range mc.data {
		mc.data[key] = []byte("{not json")
	}

	if _, ok := rc.Get(ctx, "q", 5, "admin"); ok {
		t.Error("corrupt entry must read as a miss")
	}
}
