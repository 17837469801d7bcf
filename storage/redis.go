package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/davidzamora9aSyC/contador/model"
)

// RedisStore keeps the state document under a single Redis key, for
// deployments where the service instance has no durable disk.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store persisting under key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load reads the raw state document. A missing key is not an error.
func (s *RedisStore) Load(ctx context.Context) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state key: %w", err)
	}
	return data, nil
}

// Save replaces the state document. The key never expires; the state is the
// system of record, not a cache.
func (s *RedisStore) Save(ctx context.Context, state *model.StateFile) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing state key: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
