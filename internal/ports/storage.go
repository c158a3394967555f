package ports

// Package ports defines interfaces (hexagonal ports) for storefront behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KVStore.Get when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the persistence capability the session/cart store writes through.
// Keys are plain strings ("user", "token", "cart") scoped to one browser
// client by the implementation. Values survive process restart.
type KVStore interface {
	// Get returns the value for key, or ErrKeyNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
