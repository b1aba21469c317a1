package prom

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Bartekp26/Mushroom-AI-Identifier/observability"
)

// Exporter implements observability.Metrics and exposes a Prometheus text endpoint
// without external dependencies. It aggregates counters and simple latency sums.
// The exporter is installed process-wide and recorded into from concurrent
// request handlers, so every map access holds the mutex.
type Exporter struct {
	mu       sync.Mutex
	requests map[string]float64
	latency  map[string]float64
	tokens   map[string]float64
	errors   map[string]float64
	active   float64
}

// New creates a new in-process exporter.
func New() *Exporter {
	return &Exporter{
		requests: make(map[string]float64),
		latency:  make(map[string]float64),
		tokens:   make(map[string]float64),
		errors:   make(map[string]float64),
	}
}

// Handler returns an HTTP handler for a simple /metrics endpoint.
func Handler(e *Exporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		e.mu.Lock()
		defer e.mu.Unlock()

		// Requests
		for k, v := range e.requests {
			_, _ = w.Write([]byte("mushroomid_requests_total{label=\"" + k + "\"} " + formatFloat(v) + "\n"))
		}
		// Latency sums (seconds)
		for k, v := range e.latency {
			_, _ = w.Write([]byte("mushroomid_request_latency_seconds_sum{label=\"" + k + "\"} " + formatFloat(v) + "\n"))
		}
		// Tokens
		for k, v := range e.tokens {
			_, _ = w.Write([]byte("mushroomid_tokens_total{label=\"" + k + "\"} " + formatFloat(v) + "\n"))
		}
		// Errors
		for k, v := range e.errors {
			_, _ = w.Write([]byte("mushroomid_errors_total{label=\"" + k + "\"} " + formatFloat(v) + "\n"))
		}
		// Active identification sessions
		_, _ = w.Write([]byte("mushroomid_active_sessions " + formatFloat(e.active) + "\n"))
	})
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func (e *Exporter) IncrementRequests(labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests[labelKey(labels)]++
}

func (e *Exporter) RecordLatency(d time.Duration, labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latency[labelKey(labels)] += d.Seconds()
}

func (e *Exporter) IncrementTokensUsed(tokens int, labels map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens[labelKey(labels)] += float64(tokens)
}

func (e *Exporter) RecordError(errorType string, labels map[string]string) {
	key := errorType
	if len(labels) > 0 {
		key = key + "|" + labelKey(labels)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors[key]++
}

func (e *Exporter) SetActiveSessions(count int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = float64(count)
}

func labelKey(labels map[string]string) string {
	if v, ok := labels["route"]; ok {
		return v + "|" + labels["method"] + "|" + labels["status_code"]
	}
	if v, ok := labels["operation"]; ok {
		return v + "|" + labels["provider"]
	}
	return "generic"
}

// Ensure interface compliance
var _ observability.Metrics = (*Exporter)(nil)
