package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"docrag/internal/domain"
)

// Config is the immutable application configuration, built once from the
// environment at startup and passed to every component. No component reads
// ambient environment state directly.
type Config struct {
	// Provider settings. APIBase empty means the public OpenAI endpoint.
	// Deployments are only consulted in Azure mode (APIVersion set).
	EmbeddingModel      string
	TextModel           string
	EmbeddingDeployment string
	TextDeployment      string
	APIBase             string
	APIKey              string
	APIVersion          string
	MaxOutputTokens     int

	// Chunking, in runes.
	MaxChunkSize int
	ChunkOverlap int

	// Vector store connection.
	VectorStoreHost     string
	VectorStorePort     int
	VectorStoreUsername string
	VectorStorePassword string
	UseTLS              bool

	// Index identity: all entries for one corpus share this pair.
	IndexName string
	KeyPrefix string

	// Retrieval and resilience.
	TopK           int
	MaxRetries     int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration
}

// FromEnv builds a Config from the process environment. Missing required
// keys fail before any pipeline step executes.
func FromEnv() (*Config, error) {
	cfg := &Config{
		EmbeddingModel:      os.Getenv("EMBEDDING_MODEL"),
		TextModel:           os.Getenv("TEXT_MODEL"),
		EmbeddingDeployment: os.Getenv("EMBEDDING_DEPLOYMENT"),
		TextDeployment:      os.Getenv("TEXT_DEPLOYMENT"),
		APIBase:             os.Getenv("API_BASE"),
		APIKey:              os.Getenv("API_KEY"),
		APIVersion:          os.Getenv("API_VERSION"),
		VectorStoreHost:     os.Getenv("VECTOR_STORE_HOST"),
		VectorStoreUsername: os.Getenv("VECTOR_STORE_USERNAME"),
		VectorStorePassword: os.Getenv("VECTOR_STORE_PASSWORD"),
		IndexName:           os.Getenv("INDEX_NAME"),
		KeyPrefix:           os.Getenv("KEY_PREFIX"),
	}

	var err error
	if cfg.MaxOutputTokens, err = intEnv("MAX_OUTPUT_TOKENS", 512); err != nil {
		return nil, err
	}
	if cfg.MaxChunkSize, err = intEnv("MAX_CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = intEnv("CHUNK_OVERLAP", 100); err != nil {
		return nil, err
	}
	if cfg.VectorStorePort, err = intEnv("VECTOR_STORE_PORT", 6379); err != nil {
		return nil, err
	}
	if cfg.TopK, err = intEnv("TOP_K", 4); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = intEnv("MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	backoffMS, err := intEnv("RETRY_BACKOFF_MS", 500)
	if err != nil {
		return nil, err
	}
	cfg.RetryBackoff = time.Duration(backoffMS) * time.Millisecond
	timeoutSecs, err := intEnv("REQUEST_TIMEOUT_SECS", 30)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = time.Duration(timeoutSecs) * time.Second
	if cfg.UseTLS, err = boolEnv("USE_TLS", false); err != nil {
		return nil, err
	}

	if cfg.IndexName == "" {
		cfg.IndexName = "docrag"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "docrag:chunk:"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for key, val := range map[string]string{
		"API_KEY":           c.APIKey,
		"EMBEDDING_MODEL":   c.EmbeddingModel,
		"TEXT_MODEL":        c.TextModel,
		"VECTOR_STORE_HOST": c.VectorStoreHost,
	} {
		if val == "" {
			return fmt.Errorf("%w: missing required key %s", domain.ErrConfiguration, key)
		}
	}
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: MAX_CHUNK_SIZE must be positive, got %d", domain.ErrConfiguration, c.MaxChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: CHUNK_OVERLAP must not be negative, got %d", domain.ErrConfiguration, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)",
			domain.ErrConfiguration, c.ChunkOverlap, c.MaxChunkSize)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: TOP_K must be at least 1, got %d", domain.ErrConfiguration, c.TopK)
	}
	return nil
}

// VectorStoreAddr returns the host:port pair for the vector store client.
func (c *Config) VectorStoreAddr() string {
	return net.JoinHostPort(c.VectorStoreHost, strconv.Itoa(c.VectorStorePort))
}

// VectorStoreURL returns the connection string
// scheme://[username:password@]host:port with the scheme chosen by UseTLS.
func (c *Config) VectorStoreURL() string {
	u := url.URL{Scheme: "redis", Host: c.VectorStoreAddr()}
	if c.UseTLS {
		u.Scheme = "rediss"
	}
	if c.VectorStoreUsername != "" || c.VectorStorePassword != "" {
		u.User = url.UserPassword(c.VectorStoreUsername, c.VectorStorePassword)
	}
	return u.String()
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrConfiguration, key, raw)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", domain.ErrConfiguration, key, raw)
	}
	return v, nil
}
