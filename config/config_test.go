package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini", got.Provider)
	}
	if got.GeminiModel != "gemini-2.5-flash-lite" {
		t.Errorf("model = %q", got.GeminiModel)
	}
	if got.TopKDocuments != 3 || got.SpeciesTopK != 2 {
		t.Errorf("retrieval widths = %d/%d, want 3/2", got.TopKDocuments, got.SpeciesTopK)
	}
	if got.ConfidenceThreshold != 0.90 {
		t.Errorf("threshold = %v, want 0.90", got.ConfidenceThreshold)
	}
	if len(got.KnowledgeBaseFiles) != 4 {
		t.Errorf("knowledge base files = %v", got.KnowledgeBaseFiles)
	}
	if got.Port != 8080 {
		t.Errorf("port = %d, want 8080", got.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("TOP_K_DOCUMENTS", "5")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("KNOWLEDGE_BASE_FILES", "a.json, b.json")
	t.Setenv("ENABLE_CORS", "true")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Provider != "anthropic" || got.AnthropicAPIKey != "sk-test" {
		t.Errorf("provider config not read: %+v", got)
	}
	if got.TopKDocuments != 5 {
		t.Errorf("top k = %d, want 5", got.TopKDocuments)
	}
	if got.ConfidenceThreshold != 0.8 {
		t.Errorf("threshold = %v, want 0.8", got.ConfidenceThreshold)
	}
	if len(got.KnowledgeBaseFiles) != 2 || got.KnowledgeBaseFiles[1] != "b.json" {
		t.Errorf("knowledge base files = %v", got.KnowledgeBaseFiles)
	}
	if !got.EnableCORS {
		t.Error("CORS should be enabled")
	}
}

func TestLoadDotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.env")
	if err := os.WriteFile(path, []byte("API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("API_KEY")
	t.Cleanup(func() { os.Unsetenv("API_KEY") })

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.GeminiAPIKey != "from-file" {
		t.Errorf("API key = %q, want from-file", got.GeminiAPIKey)
	}

	// A missing file is not an error.
	if _, err := Load(filepath.Join(dir, "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestLoadRejectsBadProvider(t *testing.T) {
	t.Setenv("PROVIDER", "cohere")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("CONFIDENCE_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
}
