package domain

import "errors"

// Sentinel errors. Only ErrRetrievalUnavailable crosses the engine boundary
// as a hard failure; every other condition is absorbed with a documented
// degraded behavior (vector-only scoring, no-cache mode, original-query-only
// expansion).
var (
	// ErrRetrievalUnavailable means the vector index could not be queried.
	// The vector path carries access control, so the whole query fails.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrEmbeddingProviderError wraps failures of the embedding API.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrGenerationProviderError wraps failures of the generation API.
	ErrGenerationProviderError = errors.New("generation provider error")

	// ErrKeywordIndexUnready means the keyword snapshot has not been built
	// yet (empty corpus). Recovered locally: vector-only scoring.
	ErrKeywordIndexUnready = errors.New("keyword index not ready")
)
