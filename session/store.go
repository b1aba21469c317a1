// Package session persists agent conversation state across requests so a
// user can resume an identification session. The chat history itself lives
// with the generator; only the agent-side state (anchor documents, current
// identification) is stored here.
package session

import (
	"context"
	"errors"

	"github.com/Bartekp26/Mushroom-AI-Identifier/agent"
)

// ErrNotFound is returned when no state exists for a session ID.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for session state persistence.
type Store interface {
	// Save stores the state under the given session ID, overwriting any
	// previous state.
	Save(ctx context.Context, id string, state *agent.State) error

	// Load returns the state for a session ID, or ErrNotFound.
	Load(ctx context.Context, id string) (*agent.State, error)

	// Delete removes a session's state. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, id string) error

	// List returns all known session IDs.
	List(ctx context.Context) ([]string, error)
}
