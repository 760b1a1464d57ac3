package domain

import "context"

// Generator produces free text from a prompt. The engine treats generation
// as an opaque external function; implementations must honor ctx deadlines
// because generation is the highest-latency leg of a query.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
