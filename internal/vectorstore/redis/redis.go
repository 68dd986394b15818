package redis

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

var _ vectorstore.Storage = (*Store)(nil)

// Store is a vector store backed by Redis with the RediSearch module.
// Entries are hashes under a key prefix; the index is a FLAT FLOAT32
// cosine vector index over that prefix.
type Store struct {
	client    *goredis.Client
	index     string
	prefix    string
	timeout   time.Duration
	log       *zap.Logger
	dimension int
}

// Config contains connection details and index identity for the store.
type Config struct {
	Addr     string
	Username string
	Password string
	UseTLS   bool
	Index    string
	Prefix   string
	Timeout  time.Duration
	Logger   *zap.Logger
}

func NewStore(cfg Config) *Store {
	opts := &goredis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		client:  goredis.NewClient(opts),
		index:   cfg.Index,
		prefix:  cfg.Prefix,
		timeout: timeout,
		log:     log,
	}
}

// Ping checks connectivity without mutating state.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// CreateIndex creates the named index over the key prefix. With overwrite
// the previous index and every entry under the prefix are dropped first,
// leaving zero residual entries from the prior generation.
func (s *Store) CreateIndex(ctx context.Context, dimension int, overwrite bool) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidArgument, dimension)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.FTInfo(ctx, s.index).Result()
	exists := err == nil
	if err != nil && !isUnknownIndex(err) {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	if exists {
		if !overwrite {
			return fmt.Errorf("index %q: %w", s.index, domain.ErrIndexExists)
		}
		if err := s.client.FTDropIndexWithArgs(ctx, s.index,
			&goredis.FTDropIndexOptions{DeleteDocs: true}).Err(); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
		}
		s.log.Info("dropped previous index generation", zap.String("index", s.index))
	}
	if overwrite {
		// Stray keys under the prefix may survive a dropped index.
		if err := s.deletePrefix(ctx); err != nil {
			return err
		}
	}

	err = s.client.FTCreate(ctx, s.index,
		&goredis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{s.prefix},
		},
		&goredis.FieldSchema{FieldName: "text", FieldType: goredis.SearchFieldTypeText},
		&goredis.FieldSchema{FieldName: "document_id", FieldType: goredis.SearchFieldTypeTag},
		&goredis.FieldSchema{FieldName: "chunk_id", FieldType: goredis.SearchFieldTypeTag},
		&goredis.FieldSchema{FieldName: "chunk_index", FieldType: goredis.SearchFieldTypeNumeric, Sortable: true},
		&goredis.FieldSchema{
			FieldName: "embedding",
			FieldType: goredis.SearchFieldTypeVector,
			VectorArgs: &goredis.FTVectorArgs{
				FlatOptions: &goredis.FTFlatOptions{
					Type:           "FLOAT32",
					Dim:            dimension,
					DistanceMetric: "COSINE",
				},
			},
		},
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	s.dimension = dimension
	s.log.Info("created index",
		zap.String("index", s.index),
		zap.String("prefix", s.prefix),
		zap.Int("dimension", dimension))
	return nil
}

// Upsert writes one hash per chunk, keyed by the chunk key so repeated
// upserts are last-write-wins.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidArgument, len(chunks), len(vectors))
	}
	for _, v := range vectors {
		if s.dimension != 0 && len(v) != s.dimension {
			return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, len(v), s.dimension)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipe := s.client.Pipeline()
	for i, ch := range chunks {
		pipe.HSet(ctx, s.prefix+ch.ChunkID, map[string]interface{}{
			"text":        ch.Text,
			"document_id": ch.DocumentID,
			"chunk_id":    ch.ChunkID,
			"chunk_index": ch.Index,
			"start":       ch.Start,
			"end":         ch.End,
			"embedding":   encodeVector(vectors[i]),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Search runs a KNN query and returns results by descending similarity.
// Redis reports cosine distance; similarity is 1 - distance.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be at least 1, got %d", domain.ErrInvalidArgument, topK)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("*=>[KNN %d @embedding $vec AS vector_distance]", topK)
	res, err := s.client.FTSearchWithArgs(ctx, s.index, query, &goredis.FTSearchOptions{
		Return: []goredis.FTSearchReturn{
			{FieldName: "text"},
			{FieldName: "document_id"},
			{FieldName: "chunk_id"},
			{FieldName: "chunk_index"},
			{FieldName: "vector_distance"},
		},
		SortBy:         []goredis.FTSearchSortBy{{FieldName: "vector_distance", Asc: true}},
		DialectVersion: 2,
		LimitOffset:    0,
		Limit:          topK,
		Params:         map[string]interface{}{"vec": encodeVector(vector)},
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}

	results := make([]domain.SearchResult, 0, len(res.Docs))
	for _, doc := range res.Docs {
		chunk := domain.Chunk{
			DocumentID: doc.Fields["document_id"],
			ChunkID:    doc.Fields["chunk_id"],
			Text:       doc.Fields["text"],
		}
		if idx, err := strconv.Atoi(doc.Fields["chunk_index"]); err == nil {
			chunk.Index = idx
		}
		score := 0.0
		if dist, err := strconv.ParseFloat(doc.Fields["vector_distance"], 64); err == nil {
			score = 1 - dist
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: score})
	}
	return results, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) deletePrefix(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
		}
		s.log.Info("deleted residual entries", zap.Int("count", len(keys)))
	}
	return nil
}

func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
