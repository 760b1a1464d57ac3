package retriever

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/domain"
)

// answerContextSize is how many top passages feed the answer prompt.
const answerContextSize = 3

const answerFallback = "I'm sorry, I couldn't generate an answer right now. " +
	"Please review the retrieved passages directly or try again later."

const answerPromptTemplate = `Answer the question using only the context below. If the context does not contain the answer, say so.

Context:
%s

Question: %s

Answer:`

// AnswerService turns ranked passages into a generated answer. Generation
// failures degrade to a fixed fallback message so retrieval results are
// still usable on their own.
type AnswerService struct {
	gen    domain.Generator
	logger *zap.Logger
}

// NewAnswerService creates an answer service.
func NewAnswerService(gen domain.Generator, logger *zap.Logger) *AnswerService {
	return &AnswerService{gen: gen, logger: logger}
}

// Answer generates an answer for the query from the top passages.
func (a *AnswerService) Answer(ctx context.Context, query string, passages []domain.ScoredPassage) string {
	if len(passages) == 0 || domain.IsNoResultsMarker(passages[0]) {
		return domain.NoResultsContent
	}

	prompt := fmt.Sprintf(answerPromptTemplate, buildContext(passages), query)

	answer, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("answer generation failed", zap.Error(err))
		return answerFallback
	}
	return strings.TrimSpace(answer)
}

// buildContext formats the top passages with their combined scores so the
// model can weigh them.
func buildContext(passages []domain.ScoredPassage) string {
	n := len(passages)
	if n > answerContextSize {
		n = answerContextSize
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[Score: %.3f] %s\n", passages[i].CombinedScore, passages[i].Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
