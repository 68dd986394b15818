package domain

import (
	"context"
	"time"
)

// Document represents a single source file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a bounded segment of a document used for indexing and retrieval.
// Start and End are rune offsets into the source document.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Index      int
	Text       string
	Start      int
	End        int
}

// SearchResult represents a retrieved chunk with a similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the synthesized response to a question, together with the
// retrieved context that produced it.
type Answer struct {
	Question string
	Text     string
	Context  []SearchResult
}

// Scores holds the evaluation metrics for one recorded interaction,
// each in [0,1].
type Scores struct {
	Relevance        float64
	Groundedness     float64
	ContextRelevance float64
}

// FeedbackRecord is a scored interaction. Read-only once written.
type FeedbackRecord struct {
	ID        string
	Question  string
	Answer    string
	Context   []SearchResult
	Scores    Scores
	CreatedAt time.Time
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
// EmbedBatch preserves input order. Dimension is fixed per configured
// model and learned from the first successful call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VectorStore persists chunk vectors under a named index and supports
// nearest-neighbor search.
type VectorStore interface {
	CreateIndex(ctx context.Context, dimension int, overwrite bool) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Ping(ctx context.Context) error
}

// CompletionClient wraps a hosted completion model.
type CompletionClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ScoringProvider computes scalar relevance judgements. It is injected
// independently of the CompletionClient used for synthesis, even when a
// single implementation backs both.
type ScoringProvider interface {
	ScoreRelevance(ctx context.Context, question, answer string) (float64, error)
	ScoreGroundedness(ctx context.Context, evidence, statement string) (float64, error)
	ScoreContextRelevance(ctx context.Context, question, context string) (float64, error)
}
