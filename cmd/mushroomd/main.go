// Command mushroomd serves the mushroom identification agent over HTTP.
//
// It loads the mycology knowledge base, prepares the embedding index
// (reusing precomputed embeddings when present), and exposes the
// identification and chat endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Bartekp26/Mushroom-AI-Identifier/agent"
	"github.com/Bartekp26/Mushroom-AI-Identifier/config"
	"github.com/Bartekp26/Mushroom-AI-Identifier/embedding"
	"github.com/Bartekp26/Mushroom-AI-Identifier/knowledge"
	"github.com/Bartekp26/Mushroom-AI-Identifier/llm"
	"github.com/Bartekp26/Mushroom-AI-Identifier/llm/anthropic"
	"github.com/Bartekp26/Mushroom-AI-Identifier/llm/gemini"
	obs "github.com/Bartekp26/Mushroom-AI-Identifier/observability"
	"github.com/Bartekp26/Mushroom-AI-Identifier/observability/prom"
	"github.com/Bartekp26/Mushroom-AI-Identifier/rag"
	httpserver "github.com/Bartekp26/Mushroom-AI-Identifier/server/http"
	"github.com/Bartekp26/Mushroom-AI-Identifier/vision"
)

func main() {
	envFile := flag.String("env", "keys.env", "dotenv file with API keys (missing file is ignored)")
	port := flag.Int("port", 0, "listen port (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("mushroomd failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter := prom.New()
	obs.SetMetrics(exporter)

	docs, err := knowledge.Load(cfg.KnowledgeBaseFiles)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	logger.Info("knowledge base loaded",
		zap.Int("documents", len(docs)),
		zap.Strings("files", cfg.KnowledgeBaseFiles))

	encoder, err := newEncoder(ctx, cfg)
	if err != nil {
		return err
	}

	matrix, err := loadOrBuildMatrix(ctx, cfg, encoder, docs, logger)
	if err != nil {
		return err
	}

	index, err := rag.NewIndex(docs, matrix, encoder)
	if err != nil {
		return fmt.Errorf("build retrieval index: %w", err)
	}

	client := newGeneratorClient(ctx, cfg, logger)

	predictor, err := vision.NewHTTPClassifier(vision.HTTPConfig{URL: cfg.ClassifierURL})
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	factory := func(ctx context.Context) (*agent.Agent, error) {
		return agent.New(ctx, agent.Config{
			Client:              client,
			Retriever:           index,
			TopK:                cfg.TopKDocuments,
			SpeciesTopK:         cfg.SpeciesTopK,
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			Logger:              logger,
		})
	}

	store := newSessionStore(cfg)

	server := httpserver.NewServer(factory, predictor, store, httpserver.Config{
		Port:           cfg.Port,
		EnableCORS:     cfg.EnableCORS,
		PredictionTopK: cfg.PredictionTopK,
		Metrics:        prom.Handler(exporter),
		Logger:         logger,
	})

	return server.ListenAndServe(ctx)
}

// newEncoder picks the embedding backend: OpenAI when its key is present,
// otherwise the Gemini embedding endpoint on the main API key.
func newEncoder(ctx context.Context, cfg *config.Config) (embedding.Encoder, error) {
	if cfg.OpenAIAPIKey != "" {
		return embedding.NewOpenAIEncoder(embedding.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.EmbeddingModel,
		})
	}
	if cfg.GeminiAPIKey != "" {
		return embedding.NewGeminiEncoder(ctx, embedding.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.EmbeddingModel,
		})
	}
	return nil, fmt.Errorf("an embedding API key is required (OPENAI_API_KEY or API_KEY)")
}

// loadOrBuildMatrix reuses precomputed document embeddings when the file
// exists and matches the knowledge base, and recomputes them otherwise.
func loadOrBuildMatrix(ctx context.Context, cfg *config.Config, encoder embedding.Encoder, docs []string, logger *zap.Logger) (embedding.Matrix, error) {
	if m, err := embedding.LoadMatrix(cfg.EmbeddingsPath); err == nil {
		if len(m) == len(docs) {
			logger.Info("embeddings loaded", zap.String("path", cfg.EmbeddingsPath), zap.Int("rows", len(m)))
			return m, nil
		}
		logger.Warn("embeddings file does not match knowledge base, recomputing",
			zap.Int("rows", len(m)), zap.Int("documents", len(docs)))
	}

	logger.Info("computing document embeddings", zap.Int("documents", len(docs)))
	m, err := embedding.Build(ctx, encoder, docs)
	if err != nil {
		return nil, fmt.Errorf("compute embeddings: %w", err)
	}
	if err := embedding.SaveMatrix(cfg.EmbeddingsPath, m); err != nil {
		logger.Warn("embeddings not persisted", zap.String("path", cfg.EmbeddingsPath), zap.Error(err))
	}
	return m, nil
}

// newGeneratorClient builds the chat client for the configured provider.
// Failures are logged and leave the client nil; agents then run offline.
func newGeneratorClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) llm.Client {
	switch cfg.Provider {
	case "anthropic":
		client, err := anthropic.NewClient(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		})
		if err != nil {
			logger.Warn("anthropic client unavailable, serving offline", zap.Error(err))
			return nil
		}
		return client
	default:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
		if err != nil {
			logger.Warn("gemini client unavailable, serving offline", zap.Error(err))
			return nil
		}
		return client
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
