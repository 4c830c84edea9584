package store

import (
	"context"
	"sync"

	"registrar/internal/client/models"
	"registrar/pkg/platform/sentinel"
)

// InMemory keeps client records in a map. Records are cloned on the way in
// and out so callers never alias stored state.
type InMemory struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
}

func NewInMemory() *InMemory {
	return &InMemory{clients: make(map[string]*models.Client)}
}

func (s *InMemory) Load(_ context.Context, key string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[key]; ok {
		return c.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Save(_ context.Context, key string, client *models.Client) error {
	if client == nil {
		return errNilClient
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[key] = client.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[key]; !ok {
		return false, nil
	}
	delete(s.clients, key)
	return true, nil
}

// Len returns the number of stored records.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
