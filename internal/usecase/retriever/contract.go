// Package retriever orchestrates hybrid retrieval: access-filtered vector
// search fused with TF-IDF keyword scores, with query expansion and
// response caching on top.
package retriever

import (
	"context"

	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/domain/access"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex performs access-filtered KNN searches.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, pred access.Predicate, k int) ([]domain.ScoredPassage, error)
}

// KeywordScorer scores queries against the keyword index.
type KeywordScorer interface {
	Search(query string, k int) (map[string]float64, error)
}

// ResponseCache stores ranked responses per (query, k, role).
type ResponseCache interface {
	Get(ctx context.Context, query string, k int, role string) ([]domain.ScoredPassage, bool)
	Set(ctx context.Context, query string, k int, role string, passages []domain.ScoredPassage)
}

// QueryExpander rewrites a query into alternative search queries.
type QueryExpander interface {
	Expand(ctx context.Context, query, role string) domain.Expansion
}
