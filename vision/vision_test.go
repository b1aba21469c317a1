package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSortedDescendingByConfidence(t *testing.T) {
	preds := Predictions{"A": 0.03, "B": 0.95, "C": 0.02}

	sorted := preds.Sorted()
	if len(sorted) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(sorted))
	}
	if sorted[0].Species != "B" || sorted[0].Confidence != 0.95 {
		t.Errorf("primary should be B at 0.95, got %+v", sorted[0])
	}
	if sorted[1].Species != "A" || sorted[2].Species != "C" {
		t.Errorf("alternatives out of order: %+v", sorted[1:])
	}
}

func TestSortedDeterministicOnTies(t *testing.T) {
	preds := Predictions{"C": 0.5, "A": 0.5, "B": 0.5}

	for i := 0; i < 10; i++ {
		sorted := preds.Sorted()
		if sorted[0].Species != "A" || sorted[1].Species != "B" || sorted[2].Species != "C" {
			t.Fatalf("tie ordering not deterministic: %+v", sorted)
		}
	}
}

func TestHTTPClassifierTopK(t *testing.T) {
	labels := []string{"Amanita muscaria", "Boletus edulis", "Coprinus comatus", "Lepista nuda"}
	scores := []float64{0.05, 0.80, 0.10, 0.05}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.ImagePath != "shroom.jpg" {
			t.Errorf("unexpected image path %q", req.ImagePath)
		}
		json.NewEncoder(w).Encode(classifyResponse{Scores: scores})
	}))
	defer srv.Close()

	c, err := NewHTTPClassifier(HTTPConfig{URL: srv.URL, Labels: labels})
	if err != nil {
		t.Fatalf("NewHTTPClassifier: %v", err)
	}

	preds, err := c.Predict(context.Background(), "shroom.jpg", 2)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	if preds["Boletus edulis"] != 0.80 {
		t.Errorf("expected Boletus edulis at 0.80, got %v", preds)
	}
	if _, ok := preds["Coprinus comatus"]; !ok {
		t.Errorf("expected Coprinus comatus in top-2, got %v", preds)
	}
}

func TestHTTPClassifierScoreLabelMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{Scores: []float64{0.5}})
	}))
	defer srv.Close()

	c, err := NewHTTPClassifier(HTTPConfig{URL: srv.URL, Labels: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("NewHTTPClassifier: %v", err)
	}
	if _, err := c.Predict(context.Background(), "x.jpg", 1); err == nil {
		t.Fatal("expected error for score/label count mismatch")
	}
}

func TestHTTPClassifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewHTTPClassifier(HTTPConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPClassifier: %v", err)
	}
	if _, err := c.Predict(context.Background(), "x.jpg", 3); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
