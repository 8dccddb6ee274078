package profile

import (
	"context"
	"fmt"
	"sync"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]Profile)}
}

func (m *MemoryRepository) Get(ctx context.Context, email string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[email]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	return &p, nil
}

func (m *MemoryRepository) Upsert(ctx context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[p.Email] = *p
	return nil
}
