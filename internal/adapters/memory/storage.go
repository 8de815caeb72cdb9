package memory

// Package memory provides an in-process Storage used for ephemeral sessions and tests.

import (
	"context"
	"sync"

	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
)

// Storage keeps values in a map guarded by a mutex. Nothing survives a restart.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{values: make(map[string][]byte)}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, apperrors.NotFoundf("storage key %q not found", key)
	}
	return append([]byte(nil), v...), nil
}

func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return apperrors.ValidationField("key", "storage key cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
