package eval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

// fixedProvider returns canned scores per metric.
type fixedProvider struct {
	relevance    float64
	groundedness float64
	perContext   []float64
	contextCalls int
	err          error
}

func (p *fixedProvider) ScoreRelevance(ctx context.Context, question, answer string) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.relevance, nil
}

func (p *fixedProvider) ScoreGroundedness(ctx context.Context, evidence, statement string) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.groundedness, nil
}

func (p *fixedProvider) ScoreContextRelevance(ctx context.Context, question, context string) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	score := p.perContext[p.contextCalls%len(p.perContext)]
	p.contextCalls++
	return score, nil
}

func contexts(texts ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = domain.SearchResult{Chunk: domain.Chunk{ChunkID: fmt.Sprintf("d:%d", i), Text: t}}
	}
	return out
}

func TestScoreAggregatesContextRelevanceByMean(t *testing.T) {
	provider := &fixedProvider{relevance: 0.9, groundedness: 0.7, perContext: []float64{0.8, 0.4}}
	ev := NewEvaluator(provider)

	scores, err := ev.Score(context.Background(), "q", contexts("c1", "c2"), "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, scores.Relevance, 1e-9)
	assert.InDelta(t, 0.7, scores.Groundedness, 1e-9)
	assert.InDelta(t, 0.6, scores.ContextRelevance, 1e-9)
	assert.Equal(t, 2, provider.contextCalls, "one independent call per context")
}

func TestScoreWithoutContext(t *testing.T) {
	provider := &fixedProvider{relevance: 0.5, groundedness: 0.9, perContext: []float64{1}}
	ev := NewEvaluator(provider)

	scores, err := ev.Score(context.Background(), "q", nil, "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, scores.Relevance, 1e-9)
	assert.Zero(t, scores.Groundedness, "no context implies no grounding")
	assert.Zero(t, scores.ContextRelevance)
	assert.Zero(t, provider.contextCalls)
}

func TestScoreProviderFailureIsEvaluationError(t *testing.T) {
	provider := &fixedProvider{err: fmt.Errorf("judge offline")}
	ev := NewEvaluator(provider)

	_, err := ev.Score(context.Background(), "q", contexts("c1"), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEvaluation)
}

// gradingLLM emulates a judge model: low marks for the groundedness
// rubric, high marks otherwise.
type gradingLLM struct{}

func (gradingLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	if strings.Contains(prompt, "supported by the evidence") {
		return "2", nil
	}
	return "9", nil
}

func TestLLMJudgeUngroundedAnswerScoresLow(t *testing.T) {
	judge := NewLLMJudge(gradingLLM{})
	ev := NewEvaluator(judge)

	// Answer makes claims that do not appear in the retrieved context.
	scores, err := ev.Score(context.Background(),
		"What engines are available?",
		contexts("Bananas ripen faster in a paper bag."),
		"The car ships with a 5.0L V8 and a hybrid drivetrain.")
	require.NoError(t, err)
	assert.Less(t, scores.Groundedness, 0.5)
}

func TestParseRating(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"7", 0.7},
		{"10", 1.0},
		{"0", 0.0},
		{"Rating: 8/10", 0.8},
		{"I would say 3.", 0.3},
		{"42", 1.0},
	}
	for _, tc := range cases {
		got, err := parseRating(tc.in)
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, tc.in)
	}

	_, err := parseRating("no number here")
	require.Error(t, err)
}

func TestRecorderLeaderboard(t *testing.T) {
	r := NewRecorder()
	r.Record(&domain.Answer{Question: "q1", Text: "a1"},
		domain.Scores{Relevance: 1.0, Groundedness: 0.8, ContextRelevance: 0.6})
	r.Record(&domain.Answer{Question: "q2", Text: "a2"},
		domain.Scores{Relevance: 0.5, Groundedness: 0.2, ContextRelevance: 0.0})

	records := r.Records()
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)

	lb := r.Leaderboard()
	assert.InDelta(t, 0.75, lb.Relevance, 1e-9)
	assert.InDelta(t, 0.5, lb.Groundedness, 1e-9)
	assert.InDelta(t, 0.3, lb.ContextRelevance, 1e-9)
}

// flakyAsker fails for one specific question.
type flakyAsker struct {
	failFor string
}

func (a *flakyAsker) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	if question == a.failFor {
		return nil, domain.NewStepError("embed", fmt.Errorf("%w: down", domain.ErrTransientProvider))
	}
	return &domain.Answer{
		Question: question,
		Text:     "answer to " + question,
		Context:  contexts("some context"),
	}, nil
}

func TestRunnerIsolatesFailuresPerQuestion(t *testing.T) {
	provider := &fixedProvider{relevance: 0.9, groundedness: 0.9, perContext: []float64{0.9}}
	recorder := NewRecorder()
	runner := NewRunner(&flakyAsker{failFor: "q2"}, NewEvaluator(provider), recorder, nil)

	records := runner.Run(context.Background(), []string{"q1", "q2", "q3"})
	require.Len(t, records, 2, "the failing question is skipped, the batch continues")
	assert.Equal(t, "q1", records[0].Question)
	assert.Equal(t, "q3", records[1].Question)
}

func TestRunnerKeepsAnswerWhenEvaluationFails(t *testing.T) {
	provider := &fixedProvider{err: fmt.Errorf("judge offline")}
	recorder := NewRecorder()
	runner := NewRunner(&flakyAsker{}, NewEvaluator(provider), recorder, nil)

	records := runner.Run(context.Background(), []string{"q1"})
	require.Len(t, records, 1)
	assert.Equal(t, "answer to q1", records[0].Answer)
	assert.Zero(t, records[0].Scores.Relevance)
}
