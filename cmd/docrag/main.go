package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/embedding/openai"
	"docrag/internal/engine"
	"docrag/internal/extract"
	"docrag/internal/llm"
	"docrag/internal/tui"
	redisstore "docrag/internal/vectorstore/redis"
)

func main() {
	_ = godotenv.Load()

	var (
		docsDir    string
		overwrite  bool
		skipIngest bool
	)
	flag.StringVar(&docsDir, "docs", "docs", "Directory of PDF/text files to ingest")
	flag.BoolVar(&overwrite, "overwrite", true, "Recreate the index before ingesting")
	flag.BoolVar(&skipIngest, "skip-ingest", false, "Query an existing index without ingesting")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ch, err := chunker.NewWindowChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		logger.Fatal("chunker init failed", zap.Error(err))
	}
	embedder, err := openai.NewClient(openai.Config{
		APIKey:     cfg.APIKey,
		APIBase:    cfg.APIBase,
		APIVersion: cfg.APIVersion,
		Model:      cfg.EmbeddingModel,
		Deployment: cfg.EmbeddingDeployment,
		Timeout:    cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal("embedder init failed", zap.Error(err))
	}
	completer, err := llm.NewClient(llm.Config{
		APIKey:     cfg.APIKey,
		APIBase:    cfg.APIBase,
		APIVersion: cfg.APIVersion,
		Model:      cfg.TextModel,
		Deployment: cfg.TextDeployment,
		MaxTokens:  cfg.MaxOutputTokens,
		Timeout:    cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal("completion client init failed", zap.Error(err))
	}
	store := redisstore.NewStore(redisstore.Config{
		Addr:     cfg.VectorStoreAddr(),
		Username: cfg.VectorStoreUsername,
		Password: cfg.VectorStorePassword,
		UseTLS:   cfg.UseTLS,
		Index:    cfg.IndexName,
		Prefix:   cfg.KeyPrefix,
		Timeout:  cfg.RequestTimeout,
		Logger:   logger,
	})
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("vector store unreachable",
			zap.String("url", cfg.VectorStoreURL()),
			zap.Error(err))
	}

	eng := engine.New(ch, embedder, store, completer, engine.Config{
		TopK:       cfg.TopK,
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
		Logger:     logger,
	})

	status := fmt.Sprintf("Index %q ready. Type a question.", cfg.IndexName)
	if !skipIngest {
		docs, err := extract.NewLoader(logger).LoadDir(docsDir)
		if err != nil {
			logger.Fatal("corpus load failed", zap.Error(err))
		}
		count, err := eng.Ingest(ctx, docs, overwrite)
		if err != nil {
			logger.Fatal("ingest failed", zap.Error(err))
		}
		status = fmt.Sprintf("Ingested %d documents (%d chunks). Type a question.", len(docs), count)
	}

	m := tui.New(eng, status)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Fatal("tui failed", zap.Error(err))
	}
}
