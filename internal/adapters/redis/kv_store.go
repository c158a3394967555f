package redis

// Package redis provides Redis-based adapters for the storefront system.

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/levelup/storefront/internal/ports"
)

// KVStore is a Redis-based persistence adapter for client session/cart state.
// Keys are namespaced by a per-client prefix so independent browser clients
// never share entries.
type KVStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.KVStore = (*KVStore)(nil)

// NewKVStore creates a Redis-backed KV store with no key prefix.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return &KVStore{client: client}
}

// NewKVStoreWithPrefix creates a Redis-backed KV store with a custom key prefix.
func NewKVStoreWithPrefix(client redis.UniversalClient, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

// ForClient returns a KV store scoped to one browser client's namespace.
func ForClient(client redis.UniversalClient, clientID string) *KVStore {
	return NewKVStoreWithPrefix(client, "client:"+clientID+":")
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ports.ErrKeyNotFound
	}

	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrKeyNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	// Persisted state has no TTL: it must survive until explicitly removed.
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil // Nothing to delete
	}

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
