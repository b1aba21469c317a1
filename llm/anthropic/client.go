// Package anthropic implements the llm session contract on the Anthropic
// Messages API. Anthropic has no server-side conversation state, so the
// session handle carries the history itself; callers still only see the
// opaque Session interface.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/Bartekp26/Mushroom-AI-Identifier/llm"
)

// Config holds Anthropic-specific configuration.
type Config struct {
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"` // e.g. "claude-3-5-haiku-latest"
	BaseURL     string        `json:"base_url,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// Client implements the llm.Client interface for Anthropic Claude.
type Client struct {
	client *anthropic.Client
	config Config
}

// NewClient creates a new Anthropic client.
func NewClient(config Config) (*Client, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if config.Model == "" {
		config.Model = llm.ModelClaudeHaiku
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2048
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	opts := []anthropic.ClientOption{}
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}
	opts = append(opts, anthropic.WithHTTPClient(&http.Client{Timeout: config.Timeout}))

	return &Client{
		client: anthropic.NewClient(config.APIKey, opts...),
		config: config,
	}, nil
}

func validateConfig(config Config) error {
	if config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	return nil
}

// NewSession implements llm.Client.
func (c *Client) NewSession(ctx context.Context, systemInstruction string) (llm.Session, error) {
	return &session{
		client: c.client,
		config: c.config,
		system: systemInstruction,
	}, nil
}

// Model implements llm.Client.
func (c *Client) Model() string { return c.config.Model }

// Provider implements llm.Client.
func (c *Client) Provider() llm.Provider { return llm.ProviderAnthropic }

type session struct {
	client   *anthropic.Client
	config   Config
	system   string
	messages []anthropic.Message
}

// Send implements llm.Session. The full accumulated conversation is
// replayed on every call; a failed call leaves the history unchanged.
func (s *session) Send(ctx context.Context, text string) (*llm.Response, error) {
	messages := append(s.messages, anthropic.NewUserTextMessage(text))

	temp := float32(s.config.Temperature)
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(s.config.Model),
		Messages:    messages,
		MaxTokens:   s.config.MaxTokens,
		Temperature: &temp,
	}
	if s.system != "" {
		req.System = s.system
	}

	start := time.Now()
	resp, err := s.client.CreateMessages(ctx, req)
	if err != nil {
		return nil, convertError(err)
	}
	if len(resp.Content) == 0 {
		return nil, llm.NewLLMError(llm.ProviderAnthropic, llm.ErrorTypeUnknown, "no content returned")
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			content.WriteString(*block.Text)
		}
	}

	// Only commit the exchange to the handle's history on success.
	s.messages = append(messages, anthropic.NewAssistantTextMessage(content.String()))

	out := &llm.Response{
		Content:  content.String(),
		Model:    s.config.Model,
		Provider: llm.ProviderAnthropic,
		Latency:  time.Since(start),
	}
	if resp.Usage.OutputTokens > 0 {
		out.Usage = &llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return out, nil
}

// History implements llm.Session.
func (s *session) History(ctx context.Context) ([]llm.Turn, error) {
	turns := make([]llm.Turn, 0, len(s.messages))
	for _, msg := range s.messages {
		var b strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" && block.Text != nil {
				b.WriteString(*block.Text)
			}
		}
		turns = append(turns, llm.Turn{Role: string(msg.Role), Content: b.String()})
	}
	return turns, nil
}

// convertError converts Anthropic SDK errors to LLM errors
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		llmErr := llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeUnknown, apiErr.Message, err)
		llmErr.Code = string(apiErr.Type)
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeTimeout, "request timeout", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeUnknown, "context error", err)
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection") || strings.Contains(lower, "network") {
		return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeConnectionError, "connection error", err)
	}

	return llm.NewLLMErrorWithCause(llm.ProviderAnthropic, llm.ErrorTypeUnknown, err.Error(), err)
}

var _ llm.Client = (*Client)(nil)
var _ llm.Session = (*session)(nil)
