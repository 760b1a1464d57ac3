package domain

// MaxExpansionQueries bounds the fan-out of one top-level query: the
// original plus at most four derived phrasings/terms.
const MaxExpansionQueries = 5

// Expansion is the bounded set of search queries derived from one input
// query. Transient; produced once per top-level query.
type Expansion struct {
	Original     string
	Alternatives []string
	Terms        []string
	CategoryHint string

	// AllQueries always starts with Original and is capped at
	// MaxExpansionQueries entries.
	AllQueries []string
}

// Degraded returns the expansion used when the generator call fails or its
// reply cannot be parsed: the original query only. Expansion is a recall
// booster, never a hard dependency.
func Degraded(query string) Expansion {
	return Expansion{Original: query, AllQueries: []string{query}}
}
