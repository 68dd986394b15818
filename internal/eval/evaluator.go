package eval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docrag/internal/domain"
)

// Evaluator computes relevance, groundedness and context relevance for a
// recorded interaction. Evaluation is strictly observational: a failure
// here never invalidates the answer it scored.
type Evaluator struct {
	provider domain.ScoringProvider
}

func NewEvaluator(provider domain.ScoringProvider) *Evaluator {
	return &Evaluator{provider: provider}
}

// Score evaluates one (question, contexts, answer) triple. Context
// relevance is the arithmetic mean of per-context scores; with no context
// both groundedness and context relevance are zero without a provider
// call.
func (e *Evaluator) Score(ctx context.Context, question string, contexts []domain.SearchResult, answer string) (domain.Scores, error) {
	var scores domain.Scores

	relevance, err := e.provider.ScoreRelevance(ctx, question, answer)
	if err != nil {
		return scores, wrapEval(err)
	}
	scores.Relevance = relevance

	if len(contexts) == 0 {
		return scores, nil
	}

	evidence := make([]string, 0, len(contexts))
	for _, c := range contexts {
		evidence = append(evidence, c.Chunk.Text)
	}
	groundedness, err := e.provider.ScoreGroundedness(ctx, strings.Join(evidence, "\n\n"), answer)
	if err != nil {
		return scores, wrapEval(err)
	}
	scores.Groundedness = groundedness

	var sum float64
	for _, c := range contexts {
		s, err := e.provider.ScoreContextRelevance(ctx, question, c.Chunk.Text)
		if err != nil {
			return scores, wrapEval(err)
		}
		sum += s
	}
	scores.ContextRelevance = sum / float64(len(contexts))
	return scores, nil
}

func wrapEval(err error) error {
	if errors.Is(err, domain.ErrEvaluation) {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrEvaluation, err)
}
