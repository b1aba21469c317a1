// Package agent implements the retrieval-augmented mycologist assistant.
// An Agent owns one chat session with the generator, retrieves knowledge
// base documents for each turn and carries the first identification's
// documents across the whole conversation.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Bartekp26/Mushroom-AI-Identifier/llm"
	obs "github.com/Bartekp26/Mushroom-AI-Identifier/observability"
	"github.com/Bartekp26/Mushroom-AI-Identifier/prompt"
	"github.com/Bartekp26/Mushroom-AI-Identifier/rag"
	"github.com/Bartekp26/Mushroom-AI-Identifier/vision"
)

// OfflineMessage is returned by SendMessage while the agent has no working
// generator session.
const OfflineMessage = "No internet connection. Please connect to the internet to chat with the mycologist assistant."

// Default retrieval widths.
const (
	DefaultTopK        = 3 // follow-up questions
	DefaultSpeciesTopK = 2 // per candidate species during identification
)

// Identification is the last primary/alternatives pair produced by
// InitializeFromPredictions, kept for reference.
type Identification struct {
	Primary      vision.Prediction   `json:"primary"`
	Alternatives []vision.Prediction `json:"alternatives"`
}

// State is the agent's conversation state outside the chat session itself.
// It round-trips through JSON so session stores can persist it.
type State struct {
	FirstRetrievedDocs []rag.Result    `json:"first_retrieved_docs"`
	Current            *Identification `json:"current,omitempty"`
	Identifications    int             `json:"identifications"`
}

// Config configures an Agent.
type Config struct {
	// Client creates the chat session. A nil Client puts the agent in
	// offline mode for its lifetime.
	Client llm.Client

	// Retriever answers knowledge base queries. Required.
	Retriever rag.Retriever

	// TopK is the follow-up retrieval width. Defaults to DefaultTopK.
	TopK int

	// SpeciesTopK is the per-species retrieval width during
	// identification. Defaults to DefaultSpeciesTopK.
	SpeciesTopK int

	// ConfidenceThreshold below which the identification context demands
	// expert verification. Defaults to prompt.DefaultConfidenceThreshold.
	ConfidenceThreshold float64

	Logger *zap.Logger
}

// Agent is one conversation session. It is not safe for concurrent use;
// each concurrent user needs their own Agent.
type Agent struct {
	client    llm.Client
	retriever rag.Retriever
	session   llm.Session
	online    bool
	logger    *zap.Logger

	topK        int
	speciesTopK int
	threshold   float64

	state State
}

// New constructs an Agent and opens its chat session. A missing client or
// a failed session creation is not an error: the agent comes up in offline
// mode and stays there, answering from predictions alone.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.SpeciesTopK <= 0 {
		cfg.SpeciesTopK = DefaultSpeciesTopK
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = prompt.DefaultConfidenceThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	a := &Agent{
		client:      cfg.Client,
		retriever:   cfg.Retriever,
		logger:      cfg.Logger,
		topK:        cfg.TopK,
		speciesTopK: cfg.SpeciesTopK,
		threshold:   cfg.ConfidenceThreshold,
	}

	if cfg.Client == nil {
		a.logger.Warn("no generator client configured, starting in offline mode")
		return a, nil
	}

	session, err := cfg.Client.NewSession(ctx, prompt.SystemInstructions)
	if err != nil {
		a.logger.Warn("chat session creation failed, starting in offline mode", zap.Error(err))
		obs.MetricsImpl.RecordError("session_create", map[string]string{"provider": string(cfg.Client.Provider())})
		return a, nil
	}

	a.session = session
	a.online = true
	return a, nil
}

// Online reports whether the agent has a working chat session.
func (a *Agent) Online() bool { return a.online }

// CurrentIdentification returns the last successful identification, or nil.
func (a *Agent) CurrentIdentification() *Identification { return a.state.Current }

// Snapshot copies the conversation state for persistence.
func (a *Agent) Snapshot() *State {
	docs := make([]rag.Result, len(a.state.FirstRetrievedDocs))
	copy(docs, a.state.FirstRetrievedDocs)
	s := &State{
		FirstRetrievedDocs: docs,
		Identifications:    a.state.Identifications,
	}
	if a.state.Current != nil {
		c := *a.state.Current
		s.Current = &c
	}
	return s
}

// Restore replaces the conversation state with a previously saved snapshot.
// The chat session is not restored; the generator keeps its own history.
func (a *Agent) Restore(s *State) {
	if s == nil {
		a.state = State{}
		return
	}
	a.state = State{
		FirstRetrievedDocs: append([]rag.Result(nil), s.FirstRetrievedDocs...),
		Identifications:    s.Identifications,
	}
	if s.Current != nil {
		c := *s.Current
		a.state.Current = &c
	}
}

// InitializeFromPredictions starts the identification turn from the
// classifier output. The returned string is always displayable: generation
// failures come back as "Error: <message>" with the conversation state
// unchanged.
func (a *Agent) InitializeFromPredictions(ctx context.Context, predictions vision.Predictions) string {
	text, err := a.identify(ctx, predictions)
	if err != nil {
		return "Error: " + err.Error()
	}
	return text
}

func (a *Agent) identify(ctx context.Context, predictions vision.Predictions) (string, error) {
	span, ctx := obs.TracerImpl.StartSpan(ctx, "agent.identify")
	defer span.End()

	sorted := predictions.Sorted()
	if len(sorted) == 0 {
		return "", fmt.Errorf("empty prediction set")
	}

	if !a.online {
		return offlineReport(sorted), nil
	}

	// One retrieval per candidate species, concatenated in confidence
	// order. Duplicates across species are kept; the prompt layer shows
	// each occurrence.
	var docs []rag.Result
	for _, p := range sorted {
		results, err := a.retriever.Retrieve(ctx, p.Species, a.speciesTopK)
		if err != nil {
			span.SetStatus(obs.StatusCodeError, err.Error())
			return "", fmt.Errorf("retrieve %q: %w", p.Species, err)
		}
		docs = append(docs, results...)
	}

	a.logger.Debug("retrieved documents for candidates",
		zap.Int("candidates", len(sorted)),
		zap.Int("documents", len(docs)))

	turnContext := prompt.BuildIdentificationContext(docs, sorted, a.threshold)

	text, err := a.generate(ctx, turnContext, "identify")
	if err != nil {
		return "", err
	}

	// Anchor documents are captured only on the session's first
	// successful identification so a later "try another photo" call
	// cannot overwrite them.
	if a.state.Identifications == 0 {
		a.state.FirstRetrievedDocs = docs
	}
	a.state.Identifications++
	a.state.Current = &Identification{
		Primary:      sorted[0],
		Alternatives: sorted[1:],
	}
	return text, nil
}

// SendMessage answers a follow-up question. Offline agents short-circuit
// with OfflineMessage before any retrieval or generation happens.
func (a *Agent) SendMessage(ctx context.Context, userMessage string) string {
	text, err := a.respond(ctx, userMessage)
	if err != nil {
		return "Error: " + err.Error()
	}
	return text
}

func (a *Agent) respond(ctx context.Context, userMessage string) (string, error) {
	if !a.online {
		return OfflineMessage, nil
	}

	span, ctx := obs.TracerImpl.StartSpan(ctx, "agent.send_message")
	defer span.End()

	fresh, err := a.retriever.Retrieve(ctx, userMessage, a.topK)
	if err != nil {
		span.SetStatus(obs.StatusCodeError, err.Error())
		return "", fmt.Errorf("retrieve: %w", err)
	}

	merged := mergeAnchors(fresh, a.state.FirstRetrievedDocs)
	turnContext := prompt.BuildContext(merged, userMessage)

	a.logger.Debug("built follow-up context",
		zap.Int("fresh_documents", len(fresh)),
		zap.Int("merged_documents", len(merged)),
		zap.Int("context_length", len(turnContext)))

	return a.generate(ctx, turnContext, "send_message")
}

// mergeAnchors appends every anchor document whose index is absent from
// the fresh result set. Fresh results keep their order and come first.
func mergeAnchors(fresh, anchors []rag.Result) []rag.Result {
	seen := make(map[int]struct{}, len(fresh))
	for _, doc := range fresh {
		seen[doc.Index] = struct{}{}
	}
	merged := append([]rag.Result(nil), fresh...)
	for _, doc := range anchors {
		if _, ok := seen[doc.Index]; ok {
			continue
		}
		seen[doc.Index] = struct{}{}
		merged = append(merged, doc)
	}
	return merged
}

// generate makes exactly one attempt against the chat session.
func (a *Agent) generate(ctx context.Context, text, operation string) (string, error) {
	labels := map[string]string{"operation": operation}
	if a.client != nil {
		labels["provider"] = string(a.client.Provider())
	}
	obs.MetricsImpl.IncrementRequests(labels)

	start := time.Now()
	resp, err := a.session.Send(ctx, text)
	obs.MetricsImpl.RecordLatency(time.Since(start), labels)
	if err != nil {
		obs.MetricsImpl.RecordError("generation", labels)
		return "", err
	}
	if resp.Usage != nil {
		obs.MetricsImpl.IncrementTokensUsed(resp.Usage.TotalTokens, labels)
	}
	return resp.Content, nil
}

// ClearHistory discards the chat session and starts a fresh one with the
// same system instruction, and resets the conversation state. Offline
// agents only reset state.
func (a *Agent) ClearHistory(ctx context.Context) error {
	a.state = State{}

	if !a.online {
		return nil
	}

	session, err := a.client.NewSession(ctx, prompt.SystemInstructions)
	if err != nil {
		// Without a session the agent cannot chat; it degrades to
		// offline like a failed construction would.
		a.session = nil
		a.online = false
		return fmt.Errorf("recreate session: %w", err)
	}
	a.session = session
	return nil
}

// History returns the conversation turns so far, oldest first. Offline
// agents have no history.
func (a *Agent) History(ctx context.Context) ([]llm.Turn, error) {
	if !a.online {
		return nil, nil
	}
	return a.session.History(ctx)
}

// offlineReport renders predictions without knowledge base detail.
func offlineReport(sorted []vision.Prediction) string {
	primary := sorted[0]

	alts := "None"
	if len(sorted) > 1 {
		lines := make([]string, 0, len(sorted)-1)
		for _, alt := range sorted[1:] {
			lines = append(lines, fmt.Sprintf("- %s (Confidence: %s)", alt.Species, prompt.FormatPercent(alt.Confidence)))
		}
		alts = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`[OFFLINE MODE - NO INTERNET CONNECTION]

PRIMARY PREDICTION:
Name: %s
Confidence: %s

ALTERNATIVE PREDICTIONS:
%s

⚠️ NOTE: Information from the Knowledge Base is unavailable.
Please connect to the internet to receive a detailed identification card,
safety warnings, and look-alike analysis.`, primary.Species, prompt.FormatPercent(primary.Confidence), alts)
}
