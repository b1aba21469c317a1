package embedding

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini embeddings encoder.
type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"` // e.g. "text-embedding-004"
	// Dimensionality truncates output vectors when > 0. Must match the
	// precomputed matrix when one is loaded from disk.
	Dimensionality int32 `json:"dimensionality,omitempty"`
	// Timeout bounds each embedContent call. Defaults to 30 seconds.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// GeminiEncoder implements Encoder using the Gemini embedContent API.
type GeminiEncoder struct {
	client *genai.Client
	config GeminiConfig
}

// NewGeminiEncoder creates a new encoder.
func NewGeminiEncoder(ctx context.Context, cfg GeminiConfig) (*GeminiEncoder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiEncoder{client: client, config: cfg}, nil
}

// Encode implements the Encoder interface.
func (e *GeminiEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	var cfg *genai.EmbedContentConfig
	if e.config.Dimensionality > 0 {
		dim := e.config.Dimensionality
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.config.Model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	vec := make([]float64, len(resp.Embeddings[0].Values))
	for i, v := range resp.Embeddings[0].Values {
		vec[i] = float64(v)
	}
	return vec, nil
}

var _ Encoder = (*GeminiEncoder)(nil)
