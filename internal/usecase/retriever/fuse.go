package retriever

import (
	"sort"

	"github.com/kailas-cloud/hybridex/internal/domain"
)

// combineScores folds keyword similarities into the vector results and
// recomputes the combined score as the weighted sum. Passages only the
// keyword index knows about are never added: access control lives on the
// vector path, so the keyword path can only re-rank what it returned.
func combineScores(
	vec []domain.ScoredPassage, kw map[string]float64, vectorWeight, keywordWeight float64,
) []domain.ScoredPassage {
	out := make([]domain.ScoredPassage, len(vec))
	for i, p := range vec {
		p.KeywordScore = kw[p.Identity()]
		p.CombinedScore = vectorWeight*p.VectorScore + keywordWeight*p.KeywordScore
		out[i] = p
	}

	// Stable sort keeps the vector ordering on equal combined scores.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	return out
}

// sortByCombined orders passages by combined score, preserving prior
// order on ties.
func sortByCombined(ps []domain.ScoredPassage) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].CombinedScore > ps[j].CombinedScore
	})
}

// dedupe keeps the first occurrence of each passage identity, preserving
// order across expansion result lists.
func dedupe(lists [][]domain.ScoredPassage) []domain.ScoredPassage {
	seen := make(map[string]struct{})
	var out []domain.ScoredPassage
	for _, list := range lists {
		for _, p := range list {
			id := p.Identity()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
