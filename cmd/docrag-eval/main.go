package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/domain"
	"docrag/internal/embedding/openai"
	"docrag/internal/engine"
	"docrag/internal/eval"
	"docrag/internal/extract"
	"docrag/internal/llm"
	redisstore "docrag/internal/vectorstore/redis"
)

// questionSet is the YAML shape of the evaluation input file.
type questionSet struct {
	Questions []string `yaml:"questions"`
}

func main() {
	_ = godotenv.Load()

	var (
		docsDir    string
		questions  string
		skipIngest bool
	)
	flag.StringVar(&docsDir, "docs", "docs", "Directory of PDF/text files to ingest")
	flag.StringVar(&questions, "questions", "questions.yaml", "YAML file with the evaluation questions")
	flag.BoolVar(&skipIngest, "skip-ingest", false, "Evaluate against an existing index without ingesting")
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

	data, err := os.ReadFile(questions)
	if err != nil {
		logger.Fatal("failed to read question set", zap.Error(err))
	}
	var set questionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		logger.Fatal("failed to parse question set", zap.Error(err))
	}
	if len(set.Questions) == 0 {
		logger.Fatal("question set is empty", zap.String("path", questions))
	}

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
	// The judge gets its own client so scoring stays independently
	// injectable from the synthesis path.
	judgeLLM, err := llm.NewClient(llm.Config{
		APIKey:     cfg.APIKey,
		APIBase:    cfg.APIBase,
		APIVersion: cfg.APIVersion,
		Model:      cfg.TextModel,
		Deployment: cfg.TextDeployment,
		MaxTokens:  16,
		Timeout:    cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal("judge client init failed", zap.Error(err))
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

	if !skipIngest {
		docs, err := extract.NewLoader(logger).LoadDir(docsDir)
		if err != nil {
			logger.Fatal("corpus load failed", zap.Error(err))
		}
		if _, err := eng.Ingest(ctx, docs, true); err != nil {
			logger.Fatal("ingest failed", zap.Error(err))
		}
	}

	recorder := eval.NewRecorder()
	runner := eval.NewRunner(eng, eval.NewEvaluator(eval.NewLLMJudge(judgeLLM)), recorder, logger)
	records := runner.Run(ctx, set.Questions)

	printReport(records, recorder.Leaderboard())
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printReport(records []domain.FeedbackRecord, leaderboard domain.Scores) {
	fmt.Println(headerStyle.Render("Evaluation report"))
	fmt.Println()
	for i, rec := range records {
		fmt.Printf("%d. %s\n", i+1, rec.Question)
		fmt.Printf("   %s\n", dimStyle.Render(truncate(rec.Answer, 200)))
		fmt.Printf("   %s\n", scoreStyle.Render(fmt.Sprintf(
			"relevance=%.2f groundedness=%.2f context_relevance=%.2f",
			rec.Scores.Relevance, rec.Scores.Groundedness, rec.Scores.ContextRelevance)))
		fmt.Println()
	}
	fmt.Println(headerStyle.Render("Leaderboard (mean per metric)"))
	fmt.Println(scoreStyle.Render(fmt.Sprintf(
		"relevance=%.2f groundedness=%.2f context_relevance=%.2f over %d queries",
		leaderboard.Relevance, leaderboard.Groundedness, leaderboard.ContextRelevance, len(records))))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
