// Package config loads service configuration from the environment, with an
// optional dotenv file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults mirroring the deployed knowledge base layout.
var defaultKnowledgeBaseFiles = []string{
	"Knowledge_base/wild_food_uk.json",
	"Knowledge_base/mushroom_world.json",
	"Knowledge_base/wikipedia.json",
	"Knowledge_base/others.json",
}

// Config holds the full service configuration.
type Config struct {
	// Generation
	Provider        string // "gemini" or "anthropic"
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	// Embeddings
	OpenAIAPIKey   string
	EmbeddingModel string

	// Knowledge base
	KnowledgeBaseFiles []string
	EmbeddingsPath     string

	// Retrieval
	TopKDocuments       int
	SpeciesTopK         int
	ConfidenceThreshold float64

	// Classifier
	ClassifierURL  string
	PredictionTopK int

	// Server
	Port       int
	EnableCORS bool

	// Session persistence. Empty RedisAddr keeps sessions in memory.
	RedisAddr     string
	RedisPassword string

	LogLevel string
}

// Load reads configuration from the environment. envFiles are loaded first
// when present; a missing file is not an error so production deployments
// can rely on real environment variables alone.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	cfg := &Config{
		Provider:        getEnv("PROVIDER", "gemini"),
		GeminiAPIKey:    getEnv("API_KEY", getEnv("GEMINI_API_KEY", "")),
		GeminiModel:     getEnv("GEMINI_MODEL_NAME", "gemini-2.5-flash-lite"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL_NAME", "claude-3-5-haiku-latest"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL_NAME", ""),

		KnowledgeBaseFiles: getEnvList("KNOWLEDGE_BASE_FILES", defaultKnowledgeBaseFiles),
		EmbeddingsPath:     getEnv("EMBEDDINGS_PATH", "Knowledge_base/embeddings.json"),

		TopKDocuments:       getEnvInt("TOP_K_DOCUMENTS", 3),
		SpeciesTopK:         getEnvInt("SPECIES_TOP_K", 2),
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.90),

		ClassifierURL:  getEnv("CLASSIFIER_URL", ""),
		PredictionTopK: getEnvInt("PREDICTION_TOP_K", 3),

		Port:       getEnvInt("PORT", 8080),
		EnableCORS: getEnvBool("ENABLE_CORS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if len(c.KnowledgeBaseFiles) == 0 {
		return fmt.Errorf("at least one knowledge base file is required")
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in (0,1], got %v", c.ConfidenceThreshold)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
