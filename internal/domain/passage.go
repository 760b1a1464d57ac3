package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// KeyPrefix namespaces all engine keys in the backing store.
const KeyPrefix = "hybridex:"

// PassageKeyPattern matches every passage hash written by ingestion.
const PassageKeyPattern = KeyPrefix + "passage:*"

// Metadata field names written by the ingestion pipeline.
const (
	MetaCategory    = "category"
	MetaSource      = "source"
	MetaContentHash = "content_hash"
)

// Passage is an immutable chunk of ingested document text. The ingestion
// pipeline creates passages; the engine only reads them.
type Passage struct {
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata"`
	RetrievedAt time.Time         `json:"retrieved_at"`
}

// Category returns the access-control category label of the passage.
func (p Passage) Category() string {
	return p.Metadata[MetaCategory]
}

// Identity returns a stable identifier for deduplication: the ingestion
// content hash when present, otherwise a sha256 over source and content.
// Raw content equality would collide distinct passages sharing text.
func (p Passage) Identity() string {
	if h := p.Metadata[MetaContentHash]; h != "" {
		return h
	}
	sum := sha256.Sum256([]byte(p.Metadata[MetaSource] + "\x00" + p.Content))
	return hex.EncodeToString(sum[:])
}

// ScoredPassage is a Passage with per-query relevance scores. VectorScore
// is the cosine similarity from the vector index (distance inverted,
// clamped to [0,1]), KeywordScore the TF-IDF cosine similarity in [0,1],
// CombinedScore their weighted sum.
type ScoredPassage struct {
	Passage
	VectorScore   float64 `json:"vector_score"`
	KeywordScore  float64 `json:"keyword_score"`
	CombinedScore float64 `json:"combined_score"`
}

// NoResultsContent is the content of the explicit no-results marker.
const NoResultsContent = "No relevant documents found for your query."

// NoResultsMarker returns the single passage surfaced when a query
// completes without finding anything, so callers can distinguish
// "searched, found nothing" from a silently empty reply.
func NoResultsMarker() ScoredPassage {
	return ScoredPassage{
		Passage: Passage{
			Content:     NoResultsContent,
			Metadata:    map[string]string{"type": "no_results"},
			RetrievedAt: time.Now().UTC(),
		},
	}
}

// IsNoResultsMarker reports whether p is the marker from NoResultsMarker.
func IsNoResultsMarker(p ScoredPassage) bool {
	return p.Metadata["type"] == "no_results"
}
