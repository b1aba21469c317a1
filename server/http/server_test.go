package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bartekp26/Mushroom-AI-Identifier/agent"
	"github.com/Bartekp26/Mushroom-AI-Identifier/llm"
	"github.com/Bartekp26/Mushroom-AI-Identifier/observability/prom"
	"github.com/Bartekp26/Mushroom-AI-Identifier/rag"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session/inmemory"
	"github.com/Bartekp26/Mushroom-AI-Identifier/vision"
)

type stubRetriever struct {
	results map[string][]rag.Result
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, topK int) ([]rag.Result, error) {
	return s.results[query], nil
}

type stubSession struct {
	reply   string
	history []llm.Turn
}

func (s *stubSession) Send(ctx context.Context, text string) (*llm.Response, error) {
	s.history = append(s.history,
		llm.Turn{Role: "user", Content: text},
		llm.Turn{Role: "model", Content: s.reply},
	)
	return &llm.Response{Content: s.reply, Provider: "stub"}, nil
}

func (s *stubSession) History(ctx context.Context) ([]llm.Turn, error) {
	return s.history, nil
}

type stubClient struct {
	reply string
}

func (s *stubClient) NewSession(ctx context.Context, systemInstruction string) (llm.Session, error) {
	return &stubSession{reply: s.reply}, nil
}

func (s *stubClient) Model() string          { return "stub-model" }
func (s *stubClient) Provider() llm.Provider { return "stub" }

func newTestServer(t *testing.T, store session.Store) *Server {
	t.Helper()

	client := &stubClient{reply: "identification card"}
	retriever := &stubRetriever{results: map[string][]rag.Result{
		"Amanita muscaria": {{Document: "Amanita muscaria\nedibility: poisonous", Similarity: 0.9, Index: 0}},
	}}
	factory := func(ctx context.Context) (*agent.Agent, error) {
		return agent.New(ctx, agent.Config{Client: client, Retriever: retriever})
	}
	predictor := &vision.StaticPredictor{Result: vision.Predictions{
		"Amanita muscaria": 0.95,
		"Russula emetica":  0.05,
	}}

	return NewServer(factory, predictor, store, Config{})
}

func postJSON(t *testing.T, handler http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func identify(t *testing.T, handler http.Handler) IdentifyResponse {
	t.Helper()
	rr := postJSON(t, handler, "/v1/identify", `{"image_path":"mushroom.jpg"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("identify returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp IdentifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode identify response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("health returned %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestIdentifyStartsSession(t *testing.T) {
	store := inmemory.NewStore()
	s := newTestServer(t, store)

	resp := identify(t, s.Handler())

	if resp.SessionID == "" {
		t.Fatal("missing session id")
	}
	if resp.Message != "identification card" {
		t.Errorf("message = %q", resp.Message)
	}
	if !resp.Online {
		t.Error("session should be online")
	}
	if len(resp.Predictions) != 2 || resp.Predictions[0].Species != "Amanita muscaria" {
		t.Errorf("predictions not sorted primary-first: %+v", resp.Predictions)
	}

	state, err := store.Load(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("session state not persisted: %v", err)
	}
	if state.Identifications != 1 {
		t.Errorf("persisted identifications = %d, want 1", state.Identifications)
	}
}

func TestIdentifyValidation(t *testing.T) {
	s := newTestServer(t, nil)

	if rr := postJSON(t, s.Handler(), "/v1/identify", `{}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing image_path returned %d, want 400", rr.Code)
	}
	if rr := postJSON(t, s.Handler(), "/v1/identify", `not json`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad JSON returned %d, want 400", rr.Code)
	}

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/identify", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET identify returned %d, want 405", rr.Code)
	}
}

func TestIdentifyClassifierFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.predictor = &vision.StaticPredictor{Err: errors.New("classifier down")}

	rr := postJSON(t, s.Handler(), "/v1/identify", `{"image_path":"mushroom.jpg"}`)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("classifier failure returned %d, want 502", rr.Code)
	}
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t, nil)
	id := identify(t, s.Handler()).SessionID

	rr := postJSON(t, s.Handler(), "/v1/chat", `{"session_id":"`+id+`","message":"is it edible?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("chat returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp ChatResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Message != "identification card" {
		t.Errorf("chat message = %q", resp.Message)
	}
}

func TestChatValidation(t *testing.T) {
	s := newTestServer(t, nil)
	id := identify(t, s.Handler()).SessionID

	if rr := postJSON(t, s.Handler(), "/v1/chat", `{"session_id":"`+id+`"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("empty message returned %d, want 400", rr.Code)
	}
	if rr := postJSON(t, s.Handler(), "/v1/chat", `{"session_id":"nope","message":"hi"}`); rr.Code != http.StatusNotFound {
		t.Errorf("unknown session returned %d, want 404", rr.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	id := identify(t, s.Handler()).SessionID

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history?session_id="+id, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("history returned %d", rr.Code)
	}

	var resp HistoryResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Turns) != 2 {
		t.Errorf("history has %d turns, want 2 (identification exchange)", len(resp.Turns))
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history?session_id=nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown session returned %d, want 404", rr.Code)
	}
}

func TestResetClearsSession(t *testing.T) {
	store := inmemory.NewStore()
	s := newTestServer(t, store)
	id := identify(t, s.Handler()).SessionID

	rr := postJSON(t, s.Handler(), "/v1/reset", `{"session_id":"`+id+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset returned %d: %s", rr.Code, rr.Body.String())
	}

	hr := httptest.NewRecorder()
	s.Handler().ServeHTTP(hr, httptest.NewRequest(http.MethodGet, "/v1/history?session_id="+id, nil))
	var resp HistoryResponse
	json.Unmarshal(hr.Body.Bytes(), &resp)
	if len(resp.Turns) != 0 {
		t.Errorf("history after reset has %d turns, want 0", len(resp.Turns))
	}

	if _, err := store.Load(context.Background(), id); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("persisted state should be deleted after reset, got %v", err)
	}
}

func TestMetricsRoute(t *testing.T) {
	client := &stubClient{reply: "ok"}
	retriever := &stubRetriever{}
	factory := func(ctx context.Context) (*agent.Agent, error) {
		return agent.New(ctx, agent.Config{Client: client, Retriever: retriever})
	}
	predictor := &vision.StaticPredictor{Result: vision.Predictions{"A": 1}}

	exporter := prom.New()
	s := NewServer(factory, predictor, nil, Config{Metrics: prom.Handler(exporter)})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics returned %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "mushroomid_active_sessions") {
		t.Errorf("unexpected metrics body: %s", rr.Body.String())
	}
}

func TestIdleSessionsEvicted(t *testing.T) {
	s := newTestServer(t, nil)
	stale := identify(t, s.Handler()).SessionID
	fresh := identify(t, s.Handler()).SessionID

	s.mu.Lock()
	s.sessions[stale].lastActive = time.Now().Add(-48 * time.Hour)
	s.mu.Unlock()

	s.evictIdle(24 * time.Hour)

	if rr := postJSON(t, s.Handler(), "/v1/chat", `{"session_id":"`+stale+`","message":"still there?"}`); rr.Code != http.StatusNotFound {
		t.Errorf("evicted session returned %d, want 404", rr.Code)
	}
	if rr := postJSON(t, s.Handler(), "/v1/chat", `{"session_id":"`+fresh+`","message":"still there?"}`); rr.Code != http.StatusOK {
		t.Errorf("fresh session returned %d, want 200", rr.Code)
	}
}
