package eval

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"docrag/internal/domain"
)

// Recorder collects scored interactions. Records are append-only and
// read-only once written.
type Recorder struct {
	mu      sync.Mutex
	records []domain.FeedbackRecord
}

func NewRecorder() *Recorder { return &Recorder{} }

// Record stores one scored interaction and returns the created record.
func (r *Recorder) Record(answer *domain.Answer, scores domain.Scores) domain.FeedbackRecord {
	rec := domain.FeedbackRecord{
		ID:        uuid.NewString(),
		Question:  answer.Question,
		Answer:    answer.Text,
		Context:   answer.Context,
		Scores:    scores,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	return rec
}

// Records returns a snapshot of all recorded interactions.
func (r *Recorder) Records() []domain.FeedbackRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FeedbackRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Leaderboard returns the mean of every metric across recorded queries.
func (r *Recorder) Leaderboard() domain.Scores {
	r.mu.Lock()
	defer r.mu.Unlock()
	var agg domain.Scores
	if len(r.records) == 0 {
		return agg
	}
	for _, rec := range r.records {
		agg.Relevance += rec.Scores.Relevance
		agg.Groundedness += rec.Scores.Groundedness
		agg.ContextRelevance += rec.Scores.ContextRelevance
	}
	n := float64(len(r.records))
	agg.Relevance /= n
	agg.Groundedness /= n
	agg.ContextRelevance /= n
	return agg
}
