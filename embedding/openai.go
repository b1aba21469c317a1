package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for the OpenAI embeddings encoder.
type OpenAIConfig struct {
	APIKey  string        `json:"api_key"`
	Model   string        `json:"model"` // e.g. "text-embedding-3-small"
	BaseURL string        `json:"base_url,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// OpenAIEncoder implements Encoder using the OpenAI embeddings API.
type OpenAIEncoder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEncoder creates a new encoder.
func NewOpenAIEncoder(cfg OpenAIConfig) (*OpenAIEncoder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	oaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIEncoder{
		client: openai.NewClientWithConfig(oaiCfg),
		model:  openai.EmbeddingModel(cfg.Model),
	}, nil
}

// Encode implements the Encoder interface.
func (e *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	vec := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float64(v)
	}
	return vec, nil
}

var _ Encoder = (*OpenAIEncoder)(nil)
