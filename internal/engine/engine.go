package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"docrag/internal/domain"
)

// Pipeline step names, reported on failure.
const (
	StepReceive    = "receive"
	StepEmbed      = "embed"
	StepRetrieve   = "retrieve"
	StepSynthesize = "synthesize"
	StepIngest     = "ingest"
)

const embedBatchSize = 32

// Engine orchestrates the retrieval and synthesis pipeline. It holds only
// injected collaborators and no per-query state, so concurrent Ask calls
// need no coordination.
type Engine struct {
	chunker  domain.Chunker
	embedder domain.Embedder
	store    domain.VectorStore
	llm      domain.CompletionClient

	topK       int
	maxRetries int
	backoff    time.Duration
	log        *zap.Logger
}

// Config carries the engine's tunables. MaxRetries bounds additional
// attempts after the first for transient embedding failures.
type Config struct {
	TopK       int
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

func New(chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, llm domain.CompletionClient, cfg Config) *Engine {
	if cfg.TopK < 1 {
		cfg.TopK = 4
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		llm:        llm,
		topK:       cfg.TopK,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		log:        cfg.Logger,
	}
}

// Ask answers a question against the indexed corpus. Steps run strictly
// in sequence; cancellation is honored at every step boundary. An empty
// retrieval result is not an error.
func (e *Engine) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.NewStepError(StepReceive, domain.ErrInvalidQuery)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStepError(StepReceive, err)
	}

	vector, err := e.embedWithRetry(ctx, question)
	if err != nil {
		return nil, domain.NewStepError(StepEmbed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStepError(StepEmbed, err)
	}

	results, err := e.store.Search(ctx, vector, e.topK)
	if err != nil {
		return nil, domain.NewStepError(StepRetrieve, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStepError(StepRetrieve, err)
	}
	e.log.Debug("retrieved context",
		zap.String("question", question),
		zap.Int("results", len(results)))

	text, err := e.llm.Complete(ctx, answerSystemPrompt, BuildPrompt(results, question))
	if err != nil {
		return nil, domain.NewStepError(StepSynthesize,
			fmt.Errorf("%w: %s", domain.ErrAnswerGeneration, err))
	}

	return &domain.Answer{Question: question, Text: text, Context: results}, nil
}

// Ingest chunks and embeds the documents, creates the index with the
// embedder's dimension, and upserts all entries. Any error aborts the
// run; partial index state is recovered by re-running with overwrite.
func (e *Engine) Ingest(ctx context.Context, documents []domain.Document, overwrite bool) (int, error) {
	var chunks []domain.Chunk
	for _, doc := range documents {
		cs, err := e.chunker.Chunk(doc)
		if err != nil {
			return 0, domain.NewStepError(StepIngest, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return 0, domain.NewStepError(StepIngest,
			fmt.Errorf("%w: documents contain no text", domain.ErrInvalidArgument))
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}
		batch, err := e.embedBatchWithRetry(ctx, texts)
		if err != nil {
			return 0, domain.NewStepError(StepIngest, err)
		}
		vectors = append(vectors, batch...)
		e.log.Info("embedded batch", zap.Int("done", end), zap.Int("total", len(chunks)))
	}

	if err := e.store.CreateIndex(ctx, e.embedder.Dimension(), overwrite); err != nil {
		return 0, domain.NewStepError(StepIngest, err)
	}
	if err := e.store.Upsert(ctx, chunks, vectors); err != nil {
		return 0, domain.NewStepError(StepIngest, err)
	}
	e.log.Info("ingested corpus",
		zap.Int("documents", len(documents)),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

func (e *Engine) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatchWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embedBatchWithRetry retries transient provider failures with exponential
// backoff; fatal failures propagate immediately.
func (e *Engine) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, e.backoff<<(attempt-1)); err != nil {
				return nil, err
			}
			e.log.Warn("retrying embedding",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
		}
		vectors, err := e.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		if !errors.Is(err, domain.ErrTransientProvider) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
