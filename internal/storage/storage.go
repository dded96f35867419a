// Package storage persists small pieces of client state, such as the
// session token and user profile, across restarts.
package storage

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound       = errors.New("key not found")
	ErrNotInitialized = errors.New("storage not initialized")
)

// Storage is a durable key-value store.
type Storage interface {
	// Get returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for an absent key.
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	Close() error
}

type memoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage returns a Storage that lives as long as the process.
func NewMemoryStorage() Storage {
	return &memoryStorage{values: make(map[string][]byte)}
}

func (s *memoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *memoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *memoryStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.values)
	return nil
}

func (s *memoryStorage) Close() error {
	return nil
}
