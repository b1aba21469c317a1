//go:build !adapters_redis

package main

import (
	"github.com/Bartekp26/Mushroom-AI-Identifier/config"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session/inmemory"
)

// newSessionStore keeps session state in process memory. Build with the
// adapters_redis tag to persist sessions in Redis instead.
func newSessionStore(cfg *config.Config) session.Store {
	return inmemory.NewStore()
}
