// Package http exposes the identification agent over HTTP. Each uploaded
// photo starts one session with its own agent; follow-up questions address
// the session by ID.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bartekp26/Mushroom-AI-Identifier/agent"
	"github.com/Bartekp26/Mushroom-AI-Identifier/llm"
	obs "github.com/Bartekp26/Mushroom-AI-Identifier/observability"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session"
	"github.com/Bartekp26/Mushroom-AI-Identifier/vision"
)

// AgentFactory creates the agent for a new identification session.
type AgentFactory func(ctx context.Context) (*agent.Agent, error)

// Config holds HTTP server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	EnableCORS   bool

	// PredictionTopK is how many candidate species the classifier is
	// asked for per photo.
	PredictionTopK int

	// Metrics, when set, is served at /metrics.
	Metrics http.Handler

	// SessionTTL is how long an idle session's agent stays resident
	// before eviction. Matches the TTL of the persistent session store.
	SessionTTL time.Duration

	Logger *zap.Logger
}

// Server routes identification and chat requests to per-session agents.
type Server struct {
	newAgent  AgentFactory
	predictor vision.Predictor
	store     session.Store
	config    Config
	logger    *zap.Logger
	server    *http.Server

	mu       sync.Mutex
	sessions map[string]*managedSession
}

// managedSession serializes access to one agent, which is not safe for
// concurrent use on its own.
type managedSession struct {
	mu    sync.Mutex
	agent *agent.Agent

	// lastActive is guarded by the server mutex, not the session's own.
	lastActive time.Time
}

// NewServer creates the HTTP server. store may be nil, in which case
// session state lives only in memory with the agents themselves.
func NewServer(newAgent AgentFactory, predictor vision.Predictor, store session.Store, config Config) *Server {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		// Generation calls block the response; give them room.
		config.WriteTimeout = 60 * time.Second
	}
	if config.PredictionTopK <= 0 {
		config.PredictionTopK = 3
	}
	if config.SessionTTL == 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	s := &Server{
		newAgent:  newAgent,
		predictor: predictor,
		store:     store,
		config:    config,
		logger:    config.Logger,
		sessions:  make(map[string]*managedSession),
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	var handler http.Handler = mux
	handler = s.requestIDMiddleware(handler)
	if config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/v1/identify", s.identifyHandler)
	mux.HandleFunc("/v1/chat", s.chatHandler)
	mux.HandleFunc("/v1/history", s.historyHandler)
	mux.HandleFunc("/v1/reset", s.resetHandler)
	if s.config.Metrics != nil {
		mux.Handle("/metrics", s.config.Metrics)
	}
}

// Handler returns the server's root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// IdentifyRequest starts a new identification session from a photo.
type IdentifyRequest struct {
	ImagePath string `json:"image_path"`
	SessionID string `json:"session_id,omitempty"` // reuse an existing session ("try another photo")
}

// IdentifyResponse carries the identification card and the session handle
// for follow-up questions.
type IdentifyResponse struct {
	SessionID   string              `json:"session_id"`
	Message     string              `json:"message"`
	Predictions []vision.Prediction `json:"predictions"`
	Online      bool                `json:"online"`
	Error       string              `json:"error,omitempty"`
}

// ChatRequest is a follow-up question within a session.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the agent's answer.
type ChatResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HistoryResponse is the session's conversation so far.
type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	Turns     []llm.Turn `json:"turns"`
	Error     string     `json:"error,omitempty"`
}

// healthHandler provides a health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// identifyHandler classifies the photo and starts (or re-runs) a session.
func (s *Server) identifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ImagePath == "" {
		s.writeError(w, "image_path is required", http.StatusBadRequest)
		return
	}

	predictions, err := s.predictor.Predict(r.Context(), req.ImagePath, s.config.PredictionTopK)
	if err != nil {
		s.logger.Error("classifier failed", zap.String("image_path", req.ImagePath), zap.Error(err))
		s.writeError(w, "Classification failed", http.StatusBadGateway)
		return
	}

	id := req.SessionID
	var ms *managedSession
	if id != "" {
		var ok bool
		if ms, ok = s.session(id); !ok {
			s.writeError(w, "Unknown session", http.StatusNotFound)
			return
		}
	} else {
		id = uuid.NewString()
		ag, err := s.newAgent(r.Context())
		if err != nil {
			s.logger.Error("agent creation failed", zap.Error(err))
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		ms = s.addSession(id, ag)
	}

	ms.mu.Lock()
	message := ms.agent.InitializeFromPredictions(r.Context(), predictions)
	online := ms.agent.Online()
	snapshot := ms.agent.Snapshot()
	ms.mu.Unlock()

	s.persist(r.Context(), id, snapshot)
	s.logger.Info("identification session",
		zap.String("session_id", id),
		zap.Int("predictions", len(predictions)),
		zap.Bool("online", online))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(IdentifyResponse{
		SessionID:   id,
		Message:     message,
		Predictions: predictions.Sorted(),
		Online:      online,
	})
}

// chatHandler answers a follow-up question within a session.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		s.writeError(w, "Message is required", http.StatusBadRequest)
		return
	}

	ms, ok := s.session(req.SessionID)
	if !ok {
		s.writeError(w, "Unknown session", http.StatusNotFound)
		return
	}

	ms.mu.Lock()
	message := ms.agent.SendMessage(r.Context(), req.Message)
	snapshot := ms.agent.Snapshot()
	ms.mu.Unlock()

	s.persist(r.Context(), req.SessionID, snapshot)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		SessionID: req.SessionID,
		Message:   message,
	})
}

// historyHandler returns the session's conversation turns.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("session_id")
	ms, ok := s.session(id)
	if !ok {
		s.writeError(w, "Unknown session", http.StatusNotFound)
		return
	}

	ms.mu.Lock()
	turns, err := ms.agent.History(r.Context())
	ms.mu.Unlock()
	if err != nil {
		s.logger.Error("history fetch failed", zap.String("session_id", id), zap.Error(err))
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if turns == nil {
		turns = []llm.Turn{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HistoryResponse{SessionID: id, Turns: turns})
}

// resetHandler clears a session's conversation and state.
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ms, ok := s.session(req.SessionID)
	if !ok {
		s.writeError(w, "Unknown session", http.StatusNotFound)
		return
	}

	ms.mu.Lock()
	err := ms.agent.ClearHistory(r.Context())
	ms.mu.Unlock()
	if err != nil {
		s.logger.Error("history clear failed", zap.String("session_id", req.SessionID), zap.Error(err))
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if s.store != nil {
		if err := s.store.Delete(r.Context(), req.SessionID); err != nil {
			s.logger.Warn("session state delete failed", zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{SessionID: req.SessionID, Message: "Conversation history cleared"})
}

func (s *Server) session(id string) (*managedSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[id]
	if ok {
		ms.lastActive = time.Now()
	}
	return ms, ok
}

func (s *Server) addSession(id string, ag *agent.Agent) *managedSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := &managedSession{agent: ag, lastActive: time.Now()}
	s.sessions[id] = ms
	obs.MetricsImpl.SetActiveSessions(len(s.sessions))
	return ms
}

// evictIdle drops sessions untouched for longer than maxIdle so the
// session map does not grow without bound. Persistent state in the store
// expires on its own TTL; only the resident agent goes away.
func (s *Server) evictIdle(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ms := range s.sessions {
		if ms.lastActive.Before(cutoff) {
			delete(s.sessions, id)
			s.logger.Info("idle session evicted", zap.String("session_id", id))
		}
	}
	obs.MetricsImpl.SetActiveSessions(len(s.sessions))
}

// persist saves a session snapshot if a store is configured. Persistence
// failures are logged, never surfaced to the user.
func (s *Server) persist(ctx context.Context, id string, snapshot *agent.State) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, id, snapshot); err != nil {
		s.logger.Warn("session state save failed", zap.String("session_id", id), zap.Error(err))
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ChatResponse{Error: message})
}

// requestIDMiddleware tags every request with an ID for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := obs.ExtractHTTPContext(r.Context(), r)
		obs.InjectHTTPHeaders(w, ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", zap.Int("port", s.config.Port))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go func() {
		ticker := time.NewTicker(s.config.SessionTTL / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictIdle(s.config.SessionTTL)
			}
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
