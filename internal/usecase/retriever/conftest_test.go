package retriever

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/domain/access"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockIndex struct {
	searchFn func(ctx context.Context, vector []float32, pred access.Predicate, k int) ([]domain.ScoredPassage, error)
}

func (m *mockIndex) Search(
	ctx context.Context, vector []float32, pred access.Predicate, k int,
) ([]domain.ScoredPassage, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, vector, pred, k)
	}
	return nil, nil
}

type mockKeyword struct {
	scores map[string]float64
	err    error
}

func (m *mockKeyword) Search(_ string, _ int) (map[string]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.scores == nil {
		return map[string]float64{}, nil
	}
	return m.scores, nil
}

type mockExpander struct {
	expansion domain.Expansion
	calls     int
}

func (m *mockExpander) Expand(_ context.Context, query, _ string) domain.Expansion {
	m.calls++
	if len(m.expansion.AllQueries) > 0 {
		return m.expansion
	}
	return domain.Degraded(query)
}

type mockRespCache struct {
	data map[string][]domain.ScoredPassage
	sets int
}

func newMockRespCache() *mockRespCache {
	return &mockRespCache{data: make(map[string][]domain.ScoredPassage)}
}

func (m *mockRespCache) key(query string, k int, role string) string {
	return query + "|" + string(rune('0'+k)) + "|" + role
}

func (m *mockRespCache) Get(_ context.Context, query string, k int, role string) ([]domain.ScoredPassage, bool) {
	val, ok := m.data[m.key(query, k, role)]
	return val, ok
}

func (m *mockRespCache) Set(_ context.Context, query string, k int, role string, passages []domain.ScoredPassage) {
	m.sets++
	m.data[m.key(query, k, role)] = passages
}

type mockGenerator struct {
	reply string
	err   error
	calls int
	last  string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.last = prompt
	return m.reply, m.err
}

func scored(content, category, source string, vectorScore float64) domain.ScoredPassage {
	return domain.ScoredPassage{
		Passage: domain.Passage{
			Content: content,
			Metadata: map[string]string{
				domain.MetaCategory: category,
				domain.MetaSource:   source,
			},
		},
		VectorScore:   vectorScore,
		CombinedScore: vectorScore,
	}
}

func newTestService(t *testing.T, index *mockIndex, kw KeywordScorer, exp QueryExpander, rc ResponseCache) *Service {
	t.Helper()
	return New(Config{
		Access:        access.DefaultTable(),
		Vector:        NewVectorEngine(&mockEmbedder{}, index),
		Keyword:       kw,
		Expander:      exp,
		ResponseCache: rc,
		VectorWeight:  0.7,
		KeywordWeight: 0.3,
		Logger:        zap.NewNop(),
	})
}
