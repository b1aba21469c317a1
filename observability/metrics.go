package observability

import (
	"sync"
	"time"
)

// Metrics defines the interface for collecting service metrics.
// Implementations are installed process-wide and must be safe for
// concurrent use.
type Metrics interface {
	// IncrementRequests increments the request counter
	IncrementRequests(labels map[string]string)

	// RecordLatency records request latency
	RecordLatency(duration time.Duration, labels map[string]string)

	// IncrementTokensUsed increments token usage counter
	IncrementTokensUsed(tokens int, labels map[string]string)

	// RecordError increments error counter
	RecordError(errorType string, labels map[string]string)

	// SetActiveSessions sets the gauge for active identification sessions
	SetActiveSessions(count int)
}

// NoOpMetrics is a no-operation implementation of Metrics
type NoOpMetrics struct{}

// IncrementRequests implements Metrics interface
func (n *NoOpMetrics) IncrementRequests(labels map[string]string) {}

// RecordLatency implements Metrics interface
func (n *NoOpMetrics) RecordLatency(duration time.Duration, labels map[string]string) {}

// IncrementTokensUsed implements Metrics interface
func (n *NoOpMetrics) IncrementTokensUsed(tokens int, labels map[string]string) {}

// RecordError implements Metrics interface
func (n *NoOpMetrics) RecordError(errorType string, labels map[string]string) {}

// SetActiveSessions implements Metrics interface
func (n *NoOpMetrics) SetActiveSessions(count int) {}

// DefaultMetrics is a simple in-memory metrics collector
type DefaultMetrics struct {
	mu             sync.Mutex
	requests       int64
	totalLatency   time.Duration
	tokensUsed     int64
	errors         map[string]int64
	activeSessions int
}

// NewDefaultMetrics creates a new DefaultMetrics instance
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		errors: make(map[string]int64),
	}
}

// IncrementRequests implements Metrics interface
func (m *DefaultMetrics) IncrementRequests(labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
}

// RecordLatency implements Metrics interface
func (m *DefaultMetrics) RecordLatency(duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalLatency += duration
}

// IncrementTokensUsed implements Metrics interface
func (m *DefaultMetrics) IncrementTokensUsed(tokens int, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokensUsed += int64(tokens)
}

// RecordError implements Metrics interface
func (m *DefaultMetrics) RecordError(errorType string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorType]++
}

// SetActiveSessions implements Metrics interface
func (m *DefaultMetrics) SetActiveSessions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeSessions = count
}

// GetStats returns current statistics
func (m *DefaultMetrics) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	errs := make(map[string]int64, len(m.errors))
	for k, v := range m.errors {
		errs[k] = v
	}
	return map[string]interface{}{
		"requests":        m.requests,
		"total_latency":   m.totalLatency.String(),
		"tokens_used":     m.tokensUsed,
		"errors":          errs,
		"active_sessions": m.activeSessions,
	}
}

// Ensure implementations satisfy the interface
var _ Metrics = (*NoOpMetrics)(nil)
var _ Metrics = (*DefaultMetrics)(nil)
