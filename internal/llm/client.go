package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
)

// Client wraps a hosted chat completion model.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// Config configures the completion client. Deployment and APIVersion are
// only used in Azure mode (APIVersion non-empty).
type Config struct {
	APIKey     string
	APIBase    string
	APIVersion string
	Model      string
	Deployment string
	MaxTokens  int
	Timeout    time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: missing text model", domain.ErrConfiguration)
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	var cc openai.ClientConfig
	if cfg.APIVersion != "" {
		cc = openai.DefaultAzureConfig(cfg.APIKey, cfg.APIBase)
		cc.APIVersion = cfg.APIVersion
		if cfg.Deployment != "" {
			deployment := cfg.Deployment
			cc.AzureModelMapperFunc = func(string) string { return deployment }
		}
	} else {
		cc = openai.DefaultConfig(cfg.APIKey)
		if cfg.APIBase != "" {
			cc.BaseURL = cfg.APIBase
		}
	}
	return &Client{
		api:       openai.NewClientWithConfig(cc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   t,
	}, nil
}

// Complete sends a system instruction plus a user prompt and returns the
// generated text. Completion calls are not retried here; retry policy
// belongs to the caller.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", domain.ErrFatalProvider)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

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
	return fmt.Errorf("%w: %s", domain.ErrTransientProvider, err)
}
