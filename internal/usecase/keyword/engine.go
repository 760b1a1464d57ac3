// Package keyword scores passages against queries with a TF-IDF model built
// from periodic corpus snapshots. Scores from here only ever adjust the
// ranking of vector results; the keyword path never introduces passages of
// its own.
package keyword

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/metrics"
)

// corpusLister is the consumer interface for corpus snapshots (ISP).
type corpusLister interface {
	List(ctx context.Context) ([]domain.Passage, error)
}

// sparseVec is an L2-normalized TF-IDF row keyed by feature index.
type sparseVec map[int]float64

// snapshot is one immutable build of the TF-IDF model. Queries read a
// snapshot end to end, so a concurrent rebuild can never skew scores
// mid-search.
type snapshot struct {
	vocab map[string]int
	idf   []float64
	rows  []sparseVec
	ids   []string
}

// Engine maintains the current TF-IDF snapshot and scores queries
// against it.
type Engine struct {
	corpus      corpusLister
	maxFeatures int
	logger      *zap.Logger

	current atomic.Pointer[snapshot]
}

// NewEngine creates a keyword engine. The engine is unready until the
// first successful Rebuild.
func NewEngine(corpus corpusLister, maxFeatures int, logger *zap.Logger) *Engine {
	return &Engine{
		corpus:      corpus,
		maxFeatures: maxFeatures,
		logger:      logger,
	}
}

// Ready reports whether a snapshot has been built.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// PassageCount returns the number of passages in the current snapshot.
func (e *Engine) PassageCount() int {
	snap := e.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.rows)
}

// Rebuild reads the corpus and swaps in a fresh snapshot. The previous
// snapshot keeps serving queries until the swap.
func (e *Engine) Rebuild(ctx context.Context) error {
	passages, err := e.corpus.List(ctx)
	if err != nil {
		return fmt.Errorf("list corpus: %w", err)
	}

	snap := build(passages, e.maxFeatures)
	e.current.Store(snap)

	metrics.KeywordIndexPassages.Set(float64(len(snap.rows)))
	e.logger.Info("keyword index rebuilt",
		zap.Int("passages", len(snap.rows)),
		zap.Int("features", len(snap.vocab)))
	return nil
}

// Search returns TF-IDF cosine similarities of the query against the
// current snapshot, keyed by passage identity. Only strictly positive
// scores are returned, capped at k entries. Before the first successful
// Rebuild it returns ErrKeywordIndexUnready; callers recover with
// vector-only scoring.
func (e *Engine) Search(query string, k int) (map[string]float64, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, domain.ErrKeywordIndexUnready
	}
	if len(snap.rows) == 0 {
		return map[string]float64{}, nil
	}

	qvec := snap.vectorize(tokenize(query))
	if len(qvec) == 0 {
		return map[string]float64{}, nil
	}

	type hit struct {
		id    string
		score float64
	}
	hits := make([]hit, 0, k)
	for i, row := range snap.rows {
		// Both vectors are normalized, the dot product is the cosine.
		var dot float64
		for idx, w := range qvec {
			dot += w * row[idx]
		}
		if dot > 0 {
			hits = append(hits, hit{id: snap.ids[i], score: dot})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}

	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		scores[h.id] = h.score
	}
	return scores, nil
}

// build constructs a snapshot from the passage list.
func build(passages []domain.Passage, maxFeatures int) *snapshot {
	docs := make([][]string, 0, len(passages))
	ids := make([]string, 0, len(passages))
	for _, p := range passages {
		docs = append(docs, tokenize(p.Content))
		ids = append(ids, p.Identity())
	}

	// Document frequency per term.
	df := make(map[string]int)
	for _, terms := range docs {
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	vocab := selectFeatures(df, maxFeatures)

	n := len(docs)
	idf := make([]float64, len(vocab))
	for term, idx := range vocab {
		// Smooth idf keeps unseen terms finite and every weight positive.
		idf[idx] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	snap := &snapshot{vocab: vocab, idf: idf, ids: ids}
	snap.rows = make([]sparseVec, len(docs))
	for i, terms := range docs {
		snap.rows[i] = snap.vectorize(terms)
	}
	return snap
}

// selectFeatures keeps the maxFeatures most frequent terms. Ties break
// alphabetically so rebuilds over an unchanged corpus are deterministic.
func selectFeatures(df map[string]int, maxFeatures int) map[string]int {
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	vocab := make(map[string]int, len(terms))
	sort.Strings(terms)
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// vectorize builds the L2-normalized TF-IDF vector for a token list.
// Terms outside the vocabulary are ignored.
func (s *snapshot) vectorize(terms []string) sparseVec {
	tf := make(map[int]float64)
	for _, t := range terms {
		if idx, ok := s.vocab[t]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return nil
	}

	var norm float64
	vec := make(sparseVec, len(tf))
	for idx, count := range tf {
		w := count * s.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

// tokenize lowercases, splits on non-alphanumeric runs, drops stopwords
// and single characters, and emits unigrams plus bigrams of adjacent
// surviving tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		words = append(words, f)
	}

	terms := make([]string, 0, len(words)*2)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}

var stopwords = makeStopwords()

func makeStopwords() map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can",
		"had", "her", "was", "one", "our", "out", "has", "have", "been",
		"were", "they", "their", "them", "then", "than", "this", "that",
		"these", "those", "with", "will", "would", "should", "could",
		"what", "when", "where", "which", "while", "who", "whom", "why",
		"how", "any", "both", "each", "few", "more", "most", "other",
		"some", "such", "only", "own", "same", "too", "very", "just",
		"about", "above", "after", "again", "against", "before", "below",
		"between", "during", "into", "through", "under", "until", "over",
		"from", "here", "there", "once", "also", "does", "did", "doing",
		"being", "because", "its", "itself", "his", "him", "she", "hers",
		"your", "yours", "ours", "mine", "off", "per", "via",
	} {
		set[w] = struct{}{}
	}
	return set
}
