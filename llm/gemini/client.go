// Package gemini implements the llm session contract on the Gemini API.
// Gemini chats keep conversation history on the service side, so the
// session handle here is a thin wrapper over one chat.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Bartekp26/Mushroom-AI-Identifier/llm"
)

// Config holds Gemini-specific configuration.
type Config struct {
	APIKey  string        `json:"api_key"`
	Model   string        `json:"model"` // e.g. "gemini-2.5-flash-lite"
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Client implements the llm.Client interface for Gemini.
type Client struct {
	client *genai.Client
	config Config
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		config.Model = llm.ModelGeminiFlashLite
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, llm.NewLLMErrorWithCause(llm.ProviderGemini, llm.ErrorTypeAuthentication, "create client", err)
	}

	return &Client{client: client, config: config}, nil
}

// NewSession implements llm.Client. The system instruction is installed in
// the chat configuration; the service appends every turn to its own
// history.
func (c *Client) NewSession(ctx context.Context, systemInstruction string) (llm.Session, error) {
	var cfg *genai.GenerateContentConfig
	if systemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemInstruction}},
			},
		}
	}

	chat, err := c.client.Chats.Create(ctx, c.config.Model, cfg, nil)
	if err != nil {
		return nil, convertError(err)
	}

	return &session{chat: chat, model: c.config.Model, timeout: c.config.Timeout}, nil
}

// Model implements llm.Client.
func (c *Client) Model() string { return c.config.Model }

// Provider implements llm.Client.
func (c *Client) Provider() llm.Provider { return llm.ProviderGemini }

type session struct {
	chat    *genai.Chat
	model   string
	timeout time.Duration
}

// Send implements llm.Session. One attempt, bounded by the configured
// timeout.
func (s *session) Send(ctx context.Context, text string) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return nil, convertError(err)
	}

	content := resp.Text()
	if content == "" {
		return nil, llm.NewLLMError(llm.ProviderGemini, llm.ErrorTypeUnknown, "empty response")
	}

	out := &llm.Response{
		Content:  content,
		Model:    s.model,
		Provider: llm.ProviderGemini,
		Latency:  time.Since(start),
	}
	if resp.UsageMetadata != nil {
		out.Usage = &llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// History implements llm.Session via the chat's curated history.
func (s *session) History(ctx context.Context) ([]llm.Turn, error) {
	contents := s.chat.History(true)
	turns := make([]llm.Turn, 0, len(contents))
	for _, c := range contents {
		var b strings.Builder
		for _, p := range c.Parts {
			b.WriteString(p.Text)
		}
		turns = append(turns, llm.Turn{Role: string(c.Role), Content: b.String()})
	}
	return turns, nil
}

func convertError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewLLMErrorWithCause(llm.ProviderGemini, llm.ErrorTypeTimeout, "request timeout", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewLLMErrorWithCause(llm.ProviderGemini, llm.ErrorTypeUnknown, "context canceled", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		errType := llm.ErrorTypeUnknown
		switch apiErr.Code {
		case 401, 403:
			errType = llm.ErrorTypeAuthentication
		case 429:
			errType = llm.ErrorTypeRateLimit
		case 500, 502, 503, 504:
			errType = llm.ErrorTypeServerError
		case 400:
			errType = llm.ErrorTypeInvalidRequest
		}
		llmErr := llm.NewLLMErrorWithCause(llm.ProviderGemini, errType, apiErr.Message, err)
		llmErr.Code = fmt.Sprintf("%d", apiErr.Code)
		return llmErr
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection") || strings.Contains(lower, "network") {
		return llm.NewLLMErrorWithCause(llm.ProviderGemini, llm.ErrorTypeConnectionError, "connection error", err)
	}
	return llm.NewLLMErrorWithCause(llm.ProviderGemini, llm.ErrorTypeUnknown, err.Error(), err)
}

var _ llm.Client = (*Client)(nil)
var _ llm.Session = (*session)(nil)
