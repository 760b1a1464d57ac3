package access

import (
	"reflect"
	"testing"
)

func TestCategoriesFor_KnownRole(t *testing.T) {
	table := DefaultTable()

	got := table.CategoriesFor("developer")
	want := []string{"rnd", "service"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CategoriesFor(developer) = %v, want %v", got, want)
	}
}

func TestCategoriesFor_UnknownRoleFallsBack(t *testing.T) {
	table := DefaultTable()

	got := table.CategoriesFor("intern")
	want := table.CategoriesFor(FallbackRole)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CategoriesFor(intern) = %v, want fallback %v", got, want)
	}
	if table.Knows("intern") {
		t.Error("Knows(intern) = true, want false")
	}
}

func TestCategoriesFor_ReturnsCopy(t *testing.T) {
	table := DefaultTable()

	first := table.CategoriesFor("service")
	first[0] = "mutated"

	second := table.CategoriesFor("service")
	if second[0] != "service" {
		t.Errorf("table mutated through returned slice: %v", second)
	}
}

func TestNewTable_NormalizesCategories(t *testing.T) {
	table := NewTable(map[string][]string{
		"ops": {"b", "a", "b", ""},
	})

	got := table.CategoriesFor("ops")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CategoriesFor(ops) = %v, want %v", got, want)
	}
}

func TestAdminCoversUnion(t *testing.T) {
	table := DefaultTable()

	admin := table.CategoriesFor(AdminRole)
	union := table.AllCategories()
	if !reflect.DeepEqual(admin, union) {
		t.Errorf("admin categories %v do not cover union %v", admin, union)
	}
}

func TestPredicateFor_SingleCategory(t *testing.T) {
	table := DefaultTable()

	p := table.PredicateFor("service")
	if p.MatchesNone() {
		t.Fatal("predicate should not match nothing")
	}
	if got := p.Categories(); len(got) != 1 || got[0] != "service" {
		t.Errorf("Categories() = %v", got)
	}
	if !p.Allows("service") || p.Allows("hr") {
		t.Error("Allows mismatch for single-category predicate")
	}
}

func TestPredicateFor_UnknownRoleIsMinimalAccess(t *testing.T) {
	table := DefaultTable()

	p := table.PredicateFor("no_such_role")
	if p.MatchesNone() {
		t.Fatal("unknown role must resolve to the fallback row, not empty")
	}
	if p.Allows("finance") || p.Allows("hr") {
		t.Error("unknown role must never see restricted categories")
	}
	if !p.Allows("service") {
		t.Error("unknown role should see the baseline category")
	}
}

func TestPredicateFor_EmptyRowMatchesNone(t *testing.T) {
	table := NewTable(map[string][]string{
		"service": {"service"},
		"locked":  {},
	})

	p := table.PredicateFor("locked")
	if !p.MatchesNone() {
		t.Errorf("expected matches-none predicate, got %v", p.Categories())
	}
	if p.Allows("service") {
		t.Error("matches-none predicate must allow nothing")
	}
}
