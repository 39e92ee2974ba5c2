// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"sync"
)

// Store holds values for one browser session and must persist them across
// the redirect round trip to the provider. Implementations must be safe for
// concurrent use by unrelated sessions; the Guard does no locking of its own
// and concurrent writes to the same session are last write wins.
type Store interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value for key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Pop returns the value for key and whether it was found, and removes
	// it.
	Pop(ctx context.Context, key string) ([]byte, bool, error)
}

// MemoryStore is a map backed Store for a single session. It's intended for
// tests and examples; it isn't persisted anywhere. The zero value is ready to
// use.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// ensure that MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

// Get implements the Store.Get interface function.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return copyBytes(v), ok, nil
}

// Set implements the Store.Set interface function.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string][]byte{}
	}
	s.values[key] = copyBytes(value)
	return nil
}

// Pop implements the Store.Pop interface function.
func (s *MemoryStore) Pop(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	delete(s.values, key)
	return v, ok, nil
}

// Len returns the number of values in the store.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
