package retriever

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/domain/access"
	"github.com/kailas-cloud/hybridex/internal/metrics"
)

// Request is one top-level retrieval request.
type Request struct {
	Text         string
	K            int
	Role         string
	UseExpansion bool
	UseCache     bool
}

// Service runs the full retrieval pipeline for a request: response cache,
// query expansion, concurrent hybrid searches, dedup, and final ranking.
type Service struct {
	access        *access.Table
	vector        *VectorEngine
	keyword       KeywordScorer
	expander      QueryExpander
	respCache     ResponseCache
	vectorWeight  float64
	keywordWeight float64
	tracker       *metrics.Tracker
	logger        *zap.Logger
}

// Config wires the service dependencies.
type Config struct {
	Access        *access.Table
	Vector        *VectorEngine
	Keyword       KeywordScorer
	Expander      QueryExpander
	ResponseCache ResponseCache
	VectorWeight  float64
	KeywordWeight float64
	Tracker       *metrics.Tracker
	Logger        *zap.Logger
}

// New creates the retrieval service.
func New(cfg Config) *Service {
	return &Service{
		access:        cfg.Access,
		vector:        cfg.Vector,
		keyword:       cfg.Keyword,
		expander:      cfg.Expander,
		respCache:     cfg.ResponseCache,
		vectorWeight:  cfg.VectorWeight,
		keywordWeight: cfg.KeywordWeight,
		tracker:       cfg.Tracker,
		logger:        cfg.Logger,
	}
}

// Query retrieves the top-k passages the requesting role may see. The
// result is never empty: a query that finds nothing yields the explicit
// no-results marker. Only retrieval unavailability is an error; every
// auxiliary failure (cache, expansion) degrades silently.
func (s *Service) Query(ctx context.Context, req Request) ([]domain.ScoredPassage, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Text)
	k := req.K
	if k <= 0 {
		k = 5
	}

	if query == "" {
		metrics.QueriesTotal.WithLabelValues("no_results").Inc()
		s.observe(start)
		return []domain.ScoredPassage{domain.NoResultsMarker()}, nil
	}

	if req.UseCache {
		if cached, ok := s.respCache.Get(ctx, query, k, req.Role); ok {
			metrics.QueriesTotal.WithLabelValues("cache_hit").Inc()
			s.observe(start)
			return cached, nil
		}
	}

	pred := s.access.PredicateFor(req.Role)

	expansion := domain.Degraded(query)
	if req.UseExpansion {
		expansion = s.expander.Expand(ctx, query, req.Role)
	}

	lists := make([][]domain.ScoredPassage, len(expansion.AllQueries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range expansion.AllQueries {
		g.Go(func() error {
			found, err := s.hybridSearch(gctx, q, pred, k)
			if err != nil {
				return err
			}
			lists[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	results := dedupe(lists)
	sortByCombined(results)
	if len(results) > k {
		results = results[:k]
	}

	if len(results) == 0 {
		metrics.QueriesTotal.WithLabelValues("no_results").Inc()
		s.observe(start)
		return []domain.ScoredPassage{domain.NoResultsMarker()}, nil
	}

	if req.UseCache {
		s.respCache.Set(ctx, query, k, req.Role, results)
	}

	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	s.observe(start)
	s.logger.Debug("retrieval complete",
		zap.String("role", req.Role),
		zap.Int("queries", len(expansion.AllQueries)),
		zap.Int("results", len(results)),
		zap.Duration("took", time.Since(start)))
	return results, nil
}

// hybridSearch runs one expansion query: vector search with the access
// predicate, keyword re-scoring, weighted fusion. Both paths over-fetch
// 2x so fusion has candidates to reorder before the final trim.
func (s *Service) hybridSearch(
	ctx context.Context, query string, pred access.Predicate, k int,
) ([]domain.ScoredPassage, error) {
	fetch := k * 2

	passages, err := s.vector.Search(ctx, query, pred, fetch)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return nil, nil
	}

	// An unready or failing keyword index degrades to vector-only scoring.
	kw, kwErr := s.keyword.Search(query, fetch)
	if kwErr != nil {
		kw = nil
	}

	fused := combineScores(passages, kw, s.vectorWeight, s.keywordWeight)
	if len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}

func (s *Service) observe(start time.Time) {
	d := time.Since(start)
	metrics.QueryDuration.Observe(d.Seconds())
	s.tracker.ObserveQuery(d)
}
