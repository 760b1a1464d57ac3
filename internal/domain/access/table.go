// Package access holds the role permission table and the category
// predicate builder. The table is loaded once at startup and immutable
// thereafter; changes require a process restart.
package access

import "sort"

// FallbackRole names the permission row applied to unknown roles. An
// unrecognized role sees only what the baseline service role sees,
// never the full set.
const FallbackRole = "service"

// AdminRole has every category listed in the table.
const AdminRole = "admin"

// Table maps role names to the document categories they may read.
type Table struct {
	perms    map[string][]string
	fallback []string
	all      []string
}

// NewTable builds an immutable permission table from role → categories.
// Category sets are copied, deduplicated and sorted so predicates are
// deterministic. The fallback row is perms[FallbackRole], or empty when
// the table carries no such role.
func NewTable(perms map[string][]string) *Table {
	t := &Table{perms: make(map[string][]string, len(perms))}

	seen := make(map[string]struct{})
	for role, cats := range perms {
		t.perms[role] = normalize(cats)
		for _, c := range t.perms[role] {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				t.all = append(t.all, c)
			}
		}
	}
	sort.Strings(t.all)

	t.fallback = t.perms[FallbackRole]
	return t
}

// DefaultTable returns the built-in role configuration.
func DefaultTable() *Table {
	return NewTable(map[string][]string{
		AdminRole:   {"service", "rnd", "archive", "hr", "finance", "legal", "marketing"},
		"developer": {"service", "rnd"},
		"service":   {"service"},

		"hr_manager": {"service", "hr"},
		"hr_staff":   {"hr"},

		"finance_user":    {"service", "finance"},
		"finance_manager": {"service", "finance", "legal"},

		"legal_counsel": {"service", "legal"},

		"marketing_lead": {"service", "marketing", "rnd"},

		"executive": {"service", "finance", "hr", "legal", "marketing"},
	})
}

// CategoriesFor returns the categories visible to role. Unknown roles do
// not fail; they resolve to the fallback row.
func (t *Table) CategoriesFor(role string) []string {
	cats, ok := t.perms[role]
	if !ok {
		cats = t.fallback
	}
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}

// Knows reports whether role has an explicit row in the table.
func (t *Table) Knows(role string) bool {
	_, ok := t.perms[role]
	return ok
}

// AllCategories returns the sorted union of every category in the table.
func (t *Table) AllCategories() []string {
	out := make([]string, len(t.all))
	copy(out, t.all)
	return out
}

// Roles returns the sorted role names in the table.
func (t *Table) Roles() []string {
	roles := make([]string, 0, len(t.perms))
	for r := range t.perms {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

func normalize(cats []string) []string {
	seen := make(map[string]struct{}, len(cats))
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
