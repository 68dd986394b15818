package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

var _ vectorstore.Storage = (*Store)(nil)

// Store is an in-memory vector store using brute-force cosine similarity.
// Upserts are idempotent by chunk key; search ties break by insertion order.
type Store struct {
	mu        sync.RWMutex
	created   bool
	dimension int
	order     []string
	entries   map[string]entry
}

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) CreateIndex(ctx context.Context, dimension int, overwrite bool) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidArgument, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created && !overwrite {
		return fmt.Errorf("in-memory index: %w", domain.ErrIndexExists)
	}
	s.created = true
	s.dimension = dimension
	s.order = nil
	s.entries = make(map[string]entry)
	return nil
}

func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidArgument, len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return fmt.Errorf("%w: index not created", domain.ErrInvalidArgument)
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, len(v), s.dimension)
		}
	}
	for i, ch := range chunks {
		key := ch.ChunkID
		if _, ok := s.entries[key]; !ok {
			s.order = append(s.order, key)
		}
		s.entries[key] = entry{chunk: ch, vector: vectors[i]}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be at least 1, got %d", domain.ErrInvalidArgument, topK)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.SearchResult, 0, len(s.order))
	for _, key := range s.order {
		e := s.entries[key]
		results = append(results, domain.SearchResult{
			Chunk: e.chunk,
			Score: cosine(vector, e.vector),
		})
	}
	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// Count reports the number of stored entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
