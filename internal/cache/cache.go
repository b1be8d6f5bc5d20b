// Package cache provides the derived-data cache layer: a key-value store
// with idempotent invalidation, plus the invalidator that routes entity
// change events to the keys they make stale.
//
// Cache entries are always rebuildable from source records, so the only
// correctness requirement is that invalidation runs before the cache is
// next consulted after a source change. Invalidating a key that is absent
// (or was already invalidated) is a no-op, never an error.
package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/wisphive/fleetd/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.Cache = (*Memory)(nil)

// Memory is an in-process plugin.Cache for tests and single-node
// deployments without Redis.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *Memory) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *Memory) InvalidatePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len reports the number of live entries. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
