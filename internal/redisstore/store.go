// Package redisstore is a Redis backend for repository.KeyValueStore.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ganot/quotagate/internal/repository"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "quotagate"

// KVStore keeps values as plain Redis strings without expiry.
type KVStore struct {
	redis  *redis.Client
	prefix string
}

// New creates a store over client. An empty prefix selects DefaultPrefix.
func New(client *redis.Client, prefix string) *KVStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &KVStore{redis: client, prefix: prefix}
}

func (s *KVStore) key(key string) string {
	return s.prefix + ":" + key
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, repository.ErrInvalidInput
	}
	value, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return repository.ErrInvalidInput
	}
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *KVStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}
