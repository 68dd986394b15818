package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
	"docrag/internal/embedding"
)

var _ embedding.Embedder = (*Client)(nil)

// Client is an embeddings client for OpenAI-compatible endpoints,
// including Azure deployments.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration

	mu        sync.Mutex
	dimension int
}

// Config configures the embeddings client. Deployment and APIVersion are
// only used in Azure mode (APIVersion non-empty).
type Config struct {
	APIKey     string
	APIBase    string
	APIVersion string
	Model      string
	Deployment string
	Timeout    time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: missing embedding model", domain.ErrConfiguration)
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(clientConfig(cfg)),
		model:   cfg.Model,
		timeout: t,
	}, nil
}

func clientConfig(cfg Config) openai.ClientConfig {
	if cfg.APIVersion != "" {
		cc := openai.DefaultAzureConfig(cfg.APIKey, cfg.APIBase)
		cc.APIVersion = cfg.APIVersion
		if cfg.Deployment != "" {
			cc.AzureModelMapperFunc = func(string) string { return cfg.Deployment }
		}
		return cc
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		cc.BaseURL = cfg.APIBase
	}
	return cc
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			domain.ErrFatalProvider, len(resp.Data), len(texts))
	}
	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		if err := c.checkDimension(len(d.Embedding)); err != nil {
			return nil, err
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimension returns the dimensionality of the produced vectors, or zero
// before the first successful call.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

func (c *Client) checkDimension(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: empty embedding returned", domain.ErrFatalProvider)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimension == 0 {
		c.dimension = n
		return nil
	}
	if n != c.dimension {
		return fmt.Errorf("%w: model returned %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, n, c.dimension)
	}
	return nil
}

// classify maps a provider error onto the pipeline failure kinds:
// rate limits, server errors and timeouts are transient; authentication
// and malformed requests are fatal. The provider message is kept verbatim.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %s", domain.ErrTransientProvider, err)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized,
			apiErr.HTTPStatusCode == http.StatusForbidden,
			apiErr.HTTPStatusCode == http.StatusBadRequest,
			apiErr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", domain.ErrFatalProvider, err)
		}
	}
	// Transport failures and deadline hits are worth retrying.
	return fmt.Errorf("%w: %s", domain.ErrTransientProvider, err)
}
