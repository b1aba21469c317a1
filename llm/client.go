// Package llm defines the contract with the remote generation service: an
// opaque chat session created with a system instruction, a per-turn send
// that appends to the service-side history, and an explicit history
// accessor.
package llm

import (
	"context"
	"time"
)

// Provider identifies a generation service.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// Default model identifiers per provider.
const (
	ModelGeminiFlashLite = "gemini-2.5-flash-lite"
	ModelClaudeHaiku     = "claude-3-5-haiku-latest"
)

// Turn is one entry of a session's conversation history.
type Turn struct {
	Role    string `json:"role"` // "user" or "model"/"assistant"
	Content string `json:"content"`
}

// Usage reports token consumption for a single generation call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is the result of one generation call.
type Response struct {
	Content  string        `json:"content"`
	Model    string        `json:"model"`
	Provider Provider      `json:"provider"`
	Usage    *Usage        `json:"usage,omitempty"`
	Latency  time.Duration `json:"latency,omitempty"`
}

// Session is an opaque handle onto one conversation. The service (or the
// handle itself) owns the message history; Send appends one user turn and
// the model's reply to it. A Session must not be shared across concurrent
// callers.
type Session interface {
	// Send submits one message and returns the model's reply. Exactly one
	// attempt is made; failures are returned, never retried here.
	Send(ctx context.Context, text string) (*Response, error)

	// History returns the conversation so far, oldest first.
	History(ctx context.Context) ([]Turn, error)
}

// Client creates chat sessions against one provider.
type Client interface {
	// NewSession starts a fresh conversation configured with the given
	// system instruction.
	NewSession(ctx context.Context, systemInstruction string) (Session, error)

	// Model returns the model identifier.
	Model() string

	// Provider returns the provider name.
	Provider() Provider
}
