//go:build adapters_redis

package main

import (
	"time"

	rds "github.com/redis/go-redis/v9"

	"github.com/Bartekp26/Mushroom-AI-Identifier/config"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session/inmemory"
	sessionredis "github.com/Bartekp26/Mushroom-AI-Identifier/session/redis"
)

// Sessions idle longer than this are dropped by Redis.
const sessionTTL = 24 * time.Hour

// newSessionStore persists session state in Redis when an address is
// configured, falling back to process memory otherwise.
func newSessionStore(cfg *config.Config) session.Store {
	if cfg.RedisAddr == "" {
		return inmemory.NewStore()
	}
	client := rds.NewClient(&rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return sessionredis.NewStore(client, sessionTTL, "mushroomid:session")
}
