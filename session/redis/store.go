//go:build adapters_redis

// Package redis persists session state in Redis so agent state survives
// process restarts and can be shared across instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	rds "github.com/redis/go-redis/v9"

	"github.com/Bartekp26/Mushroom-AI-Identifier/agent"
	"github.com/Bartekp26/Mushroom-AI-Identifier/session"
)

// Store implements session.Store on a Redis client. Keys are namespaced
// with the prefix and expire after the TTL (zero means no expiry).
type Store struct {
	client *rds.Client
	ttl    time.Duration
	prefix string
}

// NewStore creates a Redis-backed session store.
func NewStore(client *rds.Client, ttl time.Duration, prefix string) *Store {
	if prefix == "" {
		prefix = "session"
	}
	return &Store{client: client, ttl: ttl, prefix: prefix}
}

func (s *Store) key(id string) string {
	return s.prefix + ":" + id
}

// Save implements session.Store.
func (s *Store) Save(ctx context.Context, id string, state *agent.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), b, s.ttl).Err()
}

// Load implements session.Store.
func (s *Store) Load(ctx context.Context, id string) (*agent.State, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, rds.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	var state agent.State
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// List implements session.Store.
func (s *Store) List(ctx context.Context) ([]string, error) {
	pattern := s.prefix + ":*"
	var cursor uint64
	ids := []string{}
	for {
		keys, cur, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, s.prefix+":"))
		}
		if cur == 0 {
			break
		}
		cursor = cur
	}
	return ids, nil
}

var _ session.Store = (*Store)(nil)
