// Package kvstore provides the opaque string key-value store that booking
// history is persisted into.
package kvstore

import (
	"context"
	"errors"
	"sync"
)

// ErrEmptyKey is returned when a blank key is used.
var ErrEmptyKey = errors.New("kvstore: key is required")

// Store reads and overwrites whole values by key.
type Store interface {
	// Get returns the stored value; found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
}

// Memory is a process-local Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
