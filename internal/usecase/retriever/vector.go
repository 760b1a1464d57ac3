package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/domain/access"
)

// VectorEngine embeds a query and searches the vector index under an
// access predicate. Queries are trimmed but never case-folded: the
// embedding model handles case itself.
type VectorEngine struct {
	embed Embedder
	index VectorIndex
}

// NewVectorEngine creates a vector retrieval engine.
func NewVectorEngine(embed Embedder, index VectorIndex) *VectorEngine {
	return &VectorEngine{embed: embed, index: index}
}

// Search returns the top-k access-filtered passages for the query.
// An embedding failure makes the vector path, and with it the whole
// retrieval, unavailable.
func (v *VectorEngine) Search(
	ctx context.Context, query string, pred access.Predicate, k int,
) ([]domain.ScoredPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" || pred.MatchesNone() {
		return nil, nil
	}

	emb, err := v.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalUnavailable, err)
	}

	passages, err := v.index.Search(ctx, emb.Embedding, pred, k)
	if err != nil {
		return nil, err
	}
	return passages, nil
}
