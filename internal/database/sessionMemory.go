package database

import (
	"context"
	"sync"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
)

type memorySession struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySession() SessionStorage {
	return &memorySession{values: make(map[string]string)}
}

func (s *memorySession) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *memorySession) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", entity.ErrSessionKeyAbsent
	}
	return v, nil
}

func (s *memorySession) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}
