package rag

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/Bartekp26/Mushroom-AI-Identifier/embedding"
)

type fakeEncoder struct {
	vectors map[string][]float64
	calls   int
	err     error
}

func (f *fakeEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 0, 0}, nil
}

func testIndex(t *testing.T, enc embedding.Encoder) *Index {
	t.Helper()
	docs := []string{
		"Boletus edulis\nedibility: choice edible",
		"Amanita phalloides\nedibility: deadly poisonous",
		"Cantharellus cibarius\nedibility: edible",
	}
	matrix := embedding.Matrix{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	ix, err := NewIndex(docs, matrix, enc)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func TestNewIndexRejectsShapeMismatch(t *testing.T) {
	enc := &fakeEncoder{}
	docs := []string{"a", "b", "c"}
	matrix := embedding.Matrix{{1, 0}, {0, 1}}

	if _, err := NewIndex(docs, matrix, enc); err == nil {
		t.Fatal("expected error for matrix/knowledge base size mismatch")
	}
}

func TestRetrieveExactMatchFirst(t *testing.T) {
	// Query embedding identical to document 2's vector: document 2 comes
	// back first with similarity 1.0.
	enc := &fakeEncoder{vectors: map[string][]float64{"death cap": {0, 1, 0}}}
	ix := testIndex(t, enc)

	results, err := ix.Retrieve(context.Background(), "death cap", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Index != 1 {
		t.Errorf("expected document 1 first, got index %d", results[0].Index)
	}
	if math.Abs(results[0].Similarity-1.0) > 1e-9 {
		t.Errorf("expected similarity 1.0, got %v", results[0].Similarity)
	}
}

func TestRetrieveDiscardsNonPositive(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"q": {0.9, -0.1, 0}}}
	ix := testIndex(t, enc)

	results, err := ix.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, r := range results {
		if r.Similarity <= 0 {
			t.Errorf("result with non-positive similarity %v leaked through", r.Similarity)
		}
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestRetrieveNeverExceedsTopK(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"q": {1, 1, 1}}}
	ix := testIndex(t, enc)

	results, err := ix.Retrieve(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) > 2 {
		t.Errorf("got %d results for topK=2", len(results))
	}
}

func TestRetrieveOrderedBySimilarity(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"q": {0.2, 0.9, 0.5}}}
	ix := testIndex(t, enc)

	results, err := ix.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not sorted: %v before %v", results[i-1].Similarity, results[i].Similarity)
		}
	}
}

func TestRetrieveTieBreakByDocumentOrder(t *testing.T) {
	docs := []string{"a", "b", "c"}
	// Documents 0 and 2 have identical vectors: equal scores must keep
	// original document order.
	matrix := embedding.Matrix{
		{1, 0},
		{0, 1},
		{1, 0},
	}
	enc := &fakeEncoder{vectors: map[string][]float64{"q": {1, 0}}}
	ix, err := NewIndex(docs, matrix, enc)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	results, err := ix.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(results))
	}
	if results[0].Index != 0 || results[1].Index != 2 {
		t.Errorf("tie not broken by document order: %d, %d", results[0].Index, results[1].Index)
	}
}

func TestRetrieveEmptyWhenNothingRelevant(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"q": {-1, -1, -1}}}
	ix := testIndex(t, enc)

	results, err := ix.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRetrieveZeroNormQuery(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"q": {0, 0, 0}}}
	ix := testIndex(t, enc)

	results, err := ix.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	// Zero-norm query has similarity 0 against everything; the <= 0 filter
	// drops all of it.
	if len(results) != 0 {
		t.Errorf("expected no results for zero-norm query, got %d", len(results))
	}
}

func TestRetrieveZeroNormDocument(t *testing.T) {
	docs := []string{"normal", "degenerate"}
	matrix := embedding.Matrix{{1, 0}, {0, 0}}
	enc := &fakeEncoder{vectors: map[string][]float64{"q": {1, 0}}}
	ix, err := NewIndex(docs, matrix, enc)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	results, err := ix.Retrieve(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 || results[0].Index != 0 {
		t.Errorf("zero-norm document should never be retrieved: %v", results)
	}
}

func TestRetrieveEncoderError(t *testing.T) {
	enc := &fakeEncoder{err: fmt.Errorf("encoder down")}
	ix := testIndex(t, enc)

	if _, err := ix.Retrieve(context.Background(), "q", 3); err == nil {
		t.Fatal("expected error when encoder fails")
	}
}
