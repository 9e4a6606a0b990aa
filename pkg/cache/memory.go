// Package cache holds the stores that keep LLM completions by prompt
// fingerprint.
package cache

import (
	"context"
	"sync"
)

// Memory is an in-process completion store. Entries are lost on exit.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// Get returns the completion stored under fingerprint.
func (m *Memory) Get(_ context.Context, fingerprint string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	completion, ok := m.items[fingerprint]
	return completion, ok, nil
}

// Put stores completion under fingerprint, replacing any previous value.
func (m *Memory) Put(_ context.Context, fingerprint, completion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[fingerprint] = completion
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
