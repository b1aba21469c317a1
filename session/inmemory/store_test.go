package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/Bartekp26/Mushroom-AI-Identifier/agent"
	"github.com/Bartekp26/Mushroom-AI-Identifier/rag"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session"
	"github.com/Bartekp26/Mushroom-AI-Identifier/vision"
)

func sampleState() *agent.State {
	return &agent.State{
		FirstRetrievedDocs: []rag.Result{
			{Document: "Amanita muscaria\nedibility: poisonous", Similarity: 0.91, Index: 4},
		},
		Current: &agent.Identification{
			Primary: vision.Prediction{Species: "Amanita muscaria", Confidence: 0.95},
		},
		Identifications: 1,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, "s1", sampleState()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Identifications != 1 {
		t.Errorf("identifications = %d, want 1", got.Identifications)
	}
	if len(got.FirstRetrievedDocs) != 1 || got.FirstRetrievedDocs[0].Index != 4 {
		t.Errorf("anchor docs lost: %+v", got.FirstRetrievedDocs)
	}
	if got.Current == nil || got.Current.Primary.Species != "Amanita muscaria" {
		t.Errorf("identification lost: %+v", got.Current)
	}
}

func TestLoadCopiesState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	state := sampleState()
	if err := store.Save(ctx, "s1", state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, _ := store.Load(ctx, "s1")
	first.FirstRetrievedDocs[0].Document = "mutated"

	second, _ := store.Load(ctx, "s1")
	if second.FirstRetrievedDocs[0].Document == "mutated" {
		t.Error("loaded state aliases a previous load")
	}
}

func TestLoadMissing(t *testing.T) {
	store := NewStore()
	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.Save(ctx, "a", sampleState())
	store.Save(ctx, "b", sampleState())

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("listed %d sessions, want 2", len(ids))
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "a"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("deleted session still loads: %v", err)
	}

	// Deleting a missing session is a no-op.
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}
