// Package index performs access-filtered KNN searches against the passage
// vector index.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/hybridex/internal/db"
	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/domain/access"
)

// store is the consumer interface for vector search (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, indexName, query string) (int, error)
}

// Repo implements the vector retrieval side of the engine.
type Repo struct {
	store     store
	indexName string
}

// New creates a vector index repository over the given index.
func New(s store, indexName string) *Repo {
	return &Repo{store: s, indexName: indexName}
}

// Search runs a KNN query restricted to the categories the predicate allows.
// A predicate matching nothing short-circuits to an empty result without
// touching the index. A missing index reads as an empty corpus; any other
// store failure surfaces as ErrRetrievalUnavailable.
func (r *Repo) Search(
	ctx context.Context, vector []float32, pred access.Predicate, k int,
) ([]domain.ScoredPassage, error) {
	if pred.MatchesNone() {
		return nil, nil
	}

	q := &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		Categories:   pred.Categories(),
		K:            k,
		ReturnFields: []string{"content", domain.MetaCategory, domain.MetaSource, domain.MetaContentHash},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: search knn %s: %w", domain.ErrRetrievalUnavailable, r.indexName, err)
	}

	return parseKNNResults(sr), nil
}

// Count returns the number of indexed passages.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName, "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", r.indexName, err)
	}
	return n, nil
}

func parseKNNResults(sr *db.SearchResult) []domain.ScoredPassage {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	now := time.Now().UTC()
	passages := make([]domain.ScoredPassage, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		content := entry.Fields["content"]
		if content == "" {
			continue
		}
		p := domain.Passage{
			Content:     content,
			Metadata:    map[string]string{},
			RetrievedAt: now,
		}
		for _, meta := range []string{domain.MetaCategory, domain.MetaSource, domain.MetaContentHash} {
			if v := entry.Fields[meta]; v != "" {
				p.Metadata[meta] = v
			}
		}
		passages = append(passages, domain.ScoredPassage{
			Passage:       p,
			VectorScore:   entry.Score,
			CombinedScore: entry.Score,
		})
	}
	return passages
}
