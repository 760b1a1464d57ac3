package access

// Predicate is a boolean category filter for the vector index: a single
// equality, a disjunction of equalities, or the empty predicate that
// matches no documents. Built per query; never persisted.
type Predicate struct {
	categories []string
}

// PredicateFor builds the access predicate for role. Pure function of
// (role, table); unknown roles get the fallback row, roles with an empty
// row get the matches-nothing predicate (queries return empty, not an
// error).
func (t *Table) PredicateFor(role string) Predicate {
	return Predicate{categories: t.CategoriesFor(role)}
}

// MatchesNone reports whether the predicate excludes every document.
func (p Predicate) MatchesNone() bool {
	return len(p.categories) == 0
}

// Categories returns the allowed category values of the disjunction.
func (p Predicate) Categories() []string {
	out := make([]string, len(p.categories))
	copy(out, p.categories)
	return out
}

// Allows reports whether a passage with the given category passes the
// predicate.
func (p Predicate) Allows(category string) bool {
	for _, c := range p.categories {
		if c == category {
			return true
		}
	}
	return false
}
