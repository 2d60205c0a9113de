package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/blackgym/storefront/internal/notify"
)

// Manager hands out one Store per session key, hydrating lazily on first
// use. It is the server-side analogue of "one cart per browser".
type Manager struct {
	mu        sync.Mutex
	stores    map[string]*Store
	persister Persister
	notifier  notify.Notifier
	logger    *slog.Logger
}

func NewManager(persister Persister, notifier notify.Notifier, logger *slog.Logger) *Manager {
	return &Manager{
		stores:    make(map[string]*Store),
		persister: persister,
		notifier:  notifier,
		logger:    logger,
	}
}

func (m *Manager) Get(ctx context.Context, key string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[key]; ok {
		return store
	}

	store := NewStore(ctx, key, m.persister, m.notifier, m.logger)
	m.stores[key] = store

	return store
}

// Drop forgets the in-memory store for a key without touching persisted
// state. The next Get rehydrates from the persister.
func (m *Manager) Drop(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.stores, key)
}
