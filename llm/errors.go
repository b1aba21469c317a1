package llm

import (
	"fmt"
)

// ErrorType represents the type of LLM error
type ErrorType string

const (
	ErrorTypeUnknown         ErrorType = "unknown"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeAuthentication  ErrorType = "authentication_error"
	ErrorTypeRateLimit       ErrorType = "rate_limit_exceeded"
	ErrorTypeContextLength   ErrorType = "context_length_exceeded"
	ErrorTypeContentFilter   ErrorType = "content_filter"
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeConnectionError ErrorType = "connection_error"
)

// LLMError represents an error from an LLM provider
type LLMError struct {
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	Code     string    `json:"code,omitempty"`
	Provider Provider  `json:"provider"`
	Model    string    `json:"model,omitempty"`
	Cause    error     `json:"-"`
}

// Error implements the error interface
func (e *LLMError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *LLMError) Unwrap() error {
	return e.Cause
}

// NewLLMError creates a new LLM error
func NewLLMError(provider Provider, errorType ErrorType, message string) *LLMError {
	return &LLMError{
		Type:     errorType,
		Message:  message,
		Provider: provider,
	}
}

// NewLLMErrorWithCause creates a new LLM error with an underlying cause
func NewLLMErrorWithCause(provider Provider, errorType ErrorType, message string, cause error) *LLMError {
	err := NewLLMError(provider, errorType, message)
	err.Cause = cause
	return err
}

// IsLLMError checks if an error is an LLMError
func IsLLMError(err error) (*LLMError, bool) {
	if llmErr, ok := err.(*LLMError); ok {
		return llmErr, true
	}
	return nil, false
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	if llmErr, ok := IsLLMError(err); ok {
		return llmErr.Type == ErrorTypeAuthentication
	}
	return false
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	if llmErr, ok := IsLLMError(err); ok {
		return llmErr.Type == ErrorTypeTimeout
	}
	return false
}
