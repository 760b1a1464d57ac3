package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestExpand(t *testing.T) {
	gen := &mockGenerator{reply: `{"alternatives": ["time off rules", "leave entitlement"], "terms": ["pto", "accrual"], "category": "hr"}`}
	e := NewExpander(gen, 5, zap.NewNop())

	exp := e.Expand(context.Background(), "vacation policy", "hr_staff")

	if exp.Original != "vacation policy" {
		t.Errorf("Original = %q", exp.Original)
	}
	if len(exp.AllQueries) != 5 {
		t.Fatalf("AllQueries = %v", exp.AllQueries)
	}
	if exp.AllQueries[0] != "vacation policy" {
		t.Errorf("original must lead AllQueries, got %q", exp.AllQueries[0])
	}
	if exp.CategoryHint != "hr" {
		t.Errorf("CategoryHint = %q", exp.CategoryHint)
	}
	if !strings.Contains(gen.last, "vacation policy") || !strings.Contains(gen.last, "hr_staff") {
		t.Error("prompt must include query and role")
	}
}

func TestExpand_CodeFencedReply(t *testing.T) {
	gen := &mockGenerator{reply: "```json\n{\"alternatives\": [\"pto rules\"], \"terms\": [], \"category\": \"\"}\n```"}
	e := NewExpander(gen, 5, zap.NewNop())

	exp := e.Expand(context.Background(), "vacation policy", "hr_staff")

	if len(exp.AllQueries) != 2 || exp.AllQueries[1] != "pto rules" {
		t.Errorf("AllQueries = %v", exp.AllQueries)
	}
}

func TestExpand_CapsQueryCount(t *testing.T) {
	gen := &mockGenerator{reply: `{"alternatives": ["a", "b", "c"], "terms": ["d", "e", "f"], "category": ""}`}
	e := NewExpander(gen, 5, zap.NewNop())

	exp := e.Expand(context.Background(), "q", "admin")

	if len(exp.AllQueries) != 5 {
		t.Errorf("AllQueries not capped: %v", exp.AllQueries)
	}
}

func TestExpand_GeneratorErrorDegrades(t *testing.T) {
	gen := &mockGenerator{err: errors.New("model offline")}
	e := NewExpander(gen, 5, zap.NewNop())

	exp := e.Expand(context.Background(), "vacation policy", "hr_staff")

	if len(exp.AllQueries) != 1 || exp.AllQueries[0] != "vacation policy" {
		t.Errorf("expected degraded expansion, got %v", exp.AllQueries)
	}
}

func TestExpand_UnparsableReplyDegrades(t *testing.T) {
	for _, reply := range []string{
		"Sure! Here are some ideas for you.",
		`{"alternatives": broken`,
		"",
	} {
		gen := &mockGenerator{reply: reply}
		e := NewExpander(gen, 5, zap.NewNop())

		exp := e.Expand(context.Background(), "q", "admin")
		if len(exp.AllQueries) != 1 || exp.AllQueries[0] != "q" {
			t.Errorf("reply %q: expected degraded expansion, got %v", reply, exp.AllQueries)
		}
	}
}

func TestExpand_DropsBlankEntries(t *testing.T) {
	gen := &mockGenerator{reply: `{"alternatives": ["", "  ", "real one"], "terms": [""], "category": ""}`}
	e := NewExpander(gen, 5, zap.NewNop())

	exp := e.Expand(context.Background(), "q", "admin")

	if len(exp.AllQueries) != 2 || exp.AllQueries[1] != "real one" {
		t.Errorf("AllQueries = %v", exp.AllQueries)
	}
}
