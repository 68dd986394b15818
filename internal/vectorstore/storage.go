package vectorstore

import (
	"context"

	"docrag/internal/domain"
)

// Storage persists chunk vectors under a named index and supports
// nearest-neighbor search. Connectivity failures surface as
// domain.ErrStoreUnavailable and are never retried internally.
type Storage interface {
	CreateIndex(ctx context.Context, dimension int, overwrite bool) error
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
	Ping(ctx context.Context) error
}
