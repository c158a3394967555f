package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/levelup/storefront/config"
	"github.com/levelup/storefront/internal/ports"
)

// KVFactory builds the storage namespace for one browser client.
type KVFactory func(clientID string) ports.KVStore

// RegistryOptions groups dependencies for StoreRegistry.
type RegistryOptions struct {
	KV      KVFactory
	Auth    ports.AuthProvider
	Loyalty config.LoyaltyConfig
	Logger  *slog.Logger
}

// StoreRegistry hands out one SessionCartStore per browser client id. The
// same id always yields the same instance, so every request from one client
// shares one source of truth; distinct ids never share state.
type StoreRegistry struct {
	kv      KVFactory
	auth    ports.AuthProvider
	loyalty config.LoyaltyConfig
	logger  *slog.Logger

	mu     sync.Mutex
	stores map[string]*SessionCartStore
}

// NewStoreRegistry constructs a new StoreRegistry.
func NewStoreRegistry(opts RegistryOptions) *StoreRegistry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreRegistry{
		kv:      opts.KV,
		auth:    opts.Auth,
		loyalty: opts.Loyalty,
		logger:  logger,
		stores:  make(map[string]*SessionCartStore),
	}
}

// ForClient returns the store for a client id, constructing and hydrating it
// on first use.
func (r *StoreRegistry) ForClient(ctx context.Context, clientID string) *SessionCartStore {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[clientID]; ok {
		return store
	}

	store := NewSessionCartStore(ctx, StoreOptions{
		Storage: r.kv(clientID),
		Auth:    r.auth,
		Loyalty: r.loyalty,
		Logger:  r.logger.With("client_id", clientID),
	})
	r.stores[clientID] = store
	return store
}

// Evict drops a client's store from the registry. Persisted state is kept;
// the next ForClient rehydrates from storage.
func (r *StoreRegistry) Evict(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, clientID)
}

// Len returns the number of live stores.
func (r *StoreRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
