package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// HTTPClassifier calls a remote CNN classifier service over HTTP. The
// service scores an image against the full label set; top-K selection and
// label mapping happen here.
type HTTPClassifier struct {
	url     string
	labels  []string
	client  *http.Client
	headers map[string]string
}

// HTTPConfig holds configuration for the classifier client.
type HTTPConfig struct {
	URL     string            `json:"url"`
	Labels  []string          `json:"labels,omitempty"` // defaults to Species
	Timeout time.Duration     `json:"timeout,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// NewHTTPClassifier creates a classifier client.
func NewHTTPClassifier(cfg HTTPConfig) (*HTTPClassifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("classifier URL is required")
	}
	if cfg.Labels == nil {
		cfg.Labels = Species
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		url:     cfg.URL,
		labels:  cfg.Labels,
		client:  &http.Client{Timeout: cfg.Timeout},
		headers: cfg.Headers,
	}, nil
}

type classifyRequest struct {
	ImagePath string `json:"image_path"`
}

type classifyResponse struct {
	Scores []float64 `json:"scores"`
	Error  string    `json:"error,omitempty"`
}

// Predict implements the Predictor interface. It posts the image path to the
// classifier service, which returns one score per class, and keeps the topK
// highest-scoring labels.
func (c *HTTPClassifier) Predict(ctx context.Context, imagePath string, topK int) (Predictions, error) {
	if topK <= 0 {
		topK = 3
	}

	body, _ := json.Marshal(classifyRequest{ImagePath: imagePath})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("classifier returned %d: %s", res.StatusCode, string(b))
	}

	var cr classifyResponse
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if cr.Error != "" {
		return nil, fmt.Errorf("classifier error: %s", cr.Error)
	}
	if len(cr.Scores) != len(c.labels) {
		return nil, fmt.Errorf("classifier returned %d scores for %d labels", len(cr.Scores), len(c.labels))
	}

	// Top-K over the raw score vector.
	order := make([]int, len(cr.Scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cr.Scores[order[a]] > cr.Scores[order[b]]
	})
	if topK > len(order) {
		topK = len(order)
	}

	preds := make(Predictions, topK)
	for _, idx := range order[:topK] {
		preds[c.labels[idx]] = cr.Scores[idx]
	}
	return preds, nil
}

var _ Predictor = (*HTTPClassifier)(nil)
