package eval

import (
	"context"

	"go.uber.org/zap"

	"docrag/internal/domain"
)

// Asker is the pipeline surface the runner drives, one independent run
// per question.
type Asker interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// Runner evaluates a batch of questions. One question's failure aborts
// only that question; the rest of the batch continues. A scoring failure
// still records the answer, with zero scores.
type Runner struct {
	engine    Asker
	evaluator *Evaluator
	recorder  *Recorder
	log       *zap.Logger
}

func NewRunner(engine Asker, evaluator *Evaluator, recorder *Recorder, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{engine: engine, evaluator: evaluator, recorder: recorder, log: log}
}

// Run processes every question in order and returns the recorded results.
func (r *Runner) Run(ctx context.Context, questions []string) []domain.FeedbackRecord {
	for _, q := range questions {
		answer, err := r.engine.Ask(ctx, q)
		if err != nil {
			r.log.Error("query failed", zap.String("question", q), zap.Error(err))
			continue
		}
		scores, err := r.evaluator.Score(ctx, q, answer.Context, answer.Text)
		if err != nil {
			// The answer stays valid; only its scores are lost.
			r.log.Warn("evaluation failed", zap.String("question", q), zap.Error(err))
		}
		r.recorder.Record(answer, scores)
	}
	return r.recorder.Records()
}
