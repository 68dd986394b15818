package eval

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"docrag/internal/domain"
)

// LLMJudge scores interactions by asking a completion model for an
// integer rating on a 0-10 rubric, mapped to [0,1]. Each score is an
// independent provider call.
type LLMJudge struct {
	llm domain.CompletionClient
}

func NewLLMJudge(llm domain.CompletionClient) *LLMJudge {
	return &LLMJudge{llm: llm}
}

const judgeSystemPrompt = "You are a strict grader. Respond with a single integer " +
	"between 0 and 10 and nothing else."

func (j *LLMJudge) ScoreRelevance(ctx context.Context, question, answer string) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate from 0 (not at all) to 10 (completely) how well the answer addresses the question.\n\nQuestion: %s\n\nAnswer: %s",
		question, answer)
	return j.score(ctx, prompt)
}

func (j *LLMJudge) ScoreGroundedness(ctx context.Context, evidence, statement string) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate from 0 (unsupported) to 10 (fully supported) how well every claim in the statement is supported by the evidence. If the evidence is empty, answer 0.\n\nEvidence: %s\n\nStatement: %s",
		evidence, statement)
	return j.score(ctx, prompt)
}

func (j *LLMJudge) ScoreContextRelevance(ctx context.Context, question, context string) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate from 0 (unrelated) to 10 (highly relevant) how relevant the passage is to the question.\n\nQuestion: %s\n\nPassage: %s",
		question, context)
	return j.score(ctx, prompt)
}

func (j *LLMJudge) score(ctx context.Context, prompt string) (float64, error) {
	out, err := j.llm.Complete(ctx, judgeSystemPrompt, prompt)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrEvaluation, err)
	}
	rating, err := parseRating(out)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrEvaluation, err)
	}
	return rating, nil
}

var ratingRe = regexp.MustCompile(`\d+`)

// parseRating pulls the first integer out of the judge's reply and maps
// it from 0-10 to [0,1], clamping out-of-range values.
func parseRating(s string) (float64, error) {
	match := ratingRe.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("no rating in judge reply %q", s)
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("unparseable rating in judge reply %q", s)
	}
	if n > 10 {
		n = 10
	}
	return float64(n) / 10, nil
}
