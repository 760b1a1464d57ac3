package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/metrics"
)

const expansionPromptTemplate = `Given the original query and user role, generate alternative phrasings and related terms that might help find relevant documents.

Original query: %s
User role: %s

Generate:
1. 2 alternative phrasings of the same question
2. 2 related technical terms or concepts
3. 1 broader category this query might belong to

Format as JSON:
{"alternatives": [], "terms": [], "category": ""}`

// Expander rewrites queries through the generation provider. Any failure
// degrades to the original query alone; expansion is best effort and must
// never fail a retrieval.
type Expander struct {
	gen        domain.Generator
	maxQueries int
	logger     *zap.Logger
}

// NewExpander creates a query expander. maxQueries caps the total number
// of search queries including the original.
func NewExpander(gen domain.Generator, maxQueries int, logger *zap.Logger) *Expander {
	if maxQueries <= 0 || maxQueries > domain.MaxExpansionQueries {
		maxQueries = domain.MaxExpansionQueries
	}
	return &Expander{gen: gen, maxQueries: maxQueries, logger: logger}
}

// Expand asks the generator for alternative phrasings and related terms.
func (e *Expander) Expand(ctx context.Context, query, role string) domain.Expansion {
	prompt := fmt.Sprintf(expansionPromptTemplate, query, role)

	reply, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("query expansion failed, using original query only", zap.Error(err))
		metrics.ExpansionTotal.WithLabelValues("degraded").Inc()
		return domain.Degraded(query)
	}

	parsed, err := parseExpansionReply(reply)
	if err != nil {
		e.logger.Warn("failed to parse query expansion reply", zap.Error(err))
		metrics.ExpansionTotal.WithLabelValues("degraded").Inc()
		return domain.Degraded(query)
	}

	exp := domain.Expansion{
		Original:     query,
		Alternatives: parsed.Alternatives,
		Terms:        parsed.Terms,
		CategoryHint: parsed.Category,
	}
	exp.AllQueries = append([]string{query}, parsed.Alternatives...)
	exp.AllQueries = append(exp.AllQueries, parsed.Terms...)
	if len(exp.AllQueries) > e.maxQueries {
		exp.AllQueries = exp.AllQueries[:e.maxQueries]
	}

	metrics.ExpansionTotal.WithLabelValues("ok").Inc()
	return exp
}

type expansionReply struct {
	Alternatives []string `json:"alternatives"`
	Terms        []string `json:"terms"`
	Category     string   `json:"category"`
}

// parseExpansionReply extracts the JSON object from the model reply.
// Models wrap JSON in code fences or prose often enough that the parser
// cuts from the first '{' to the last '}' before unmarshaling.
func parseExpansionReply(reply string) (expansionReply, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return expansionReply{}, fmt.Errorf("no JSON object in reply")
	}

	var parsed expansionReply
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return expansionReply{}, fmt.Errorf("unmarshal expansion: %w", err)
	}

	clean := func(in []string) []string {
		out := in[:0]
		for _, s := range in {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	parsed.Alternatives = clean(parsed.Alternatives)
	parsed.Terms = clean(parsed.Terms)
	return parsed, nil
}
