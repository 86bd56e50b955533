package repository

import (
	"context"
	"sync"

	"github.com/growzapp/gateway/internal/core/domain"
)

// MemoryStateStore is an in-process domain.StateStore for tests and
// ephemeral (no persistence) mode.
type MemoryStateStore struct {
	mu       sync.RWMutex
	session  *domain.SessionRecord
	currency domain.CurrencyCode
}

// NewMemoryStateStore returns an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) SaveSession(_ context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := rec
	s.session = &copied
	return nil
}

func (s *MemoryStateStore) LoadSession(context.Context) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *MemoryStateStore) ClearSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

func (s *MemoryStateStore) SaveCurrency(_ context.Context, code domain.CurrencyCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = code
	return nil
}

func (s *MemoryStateStore) LoadCurrency(context.Context) (domain.CurrencyCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency, nil
}
