package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations learn their dimension from the first successful call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
