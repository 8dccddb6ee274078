// Package mirror persists serialized cart state per session.
package mirror

import (
	"context"
	"errors"
	"sync"
)

var ErrMissingSession = errors.New("session id is required")

// Backend stores one text value per (session, key).
type Backend interface {
	Get(ctx context.Context, sessionID, key string) (value string, ok bool, err error)
	Set(ctx context.Context, sessionID, key, value string) error
}

// Bound is a Backend narrowed to a single session. It satisfies cart.Mirror.
type Bound struct {
	backend   Backend
	sessionID string
}

func Session(b Backend, sessionID string) *Bound {
	return &Bound{backend: b, sessionID: sessionID}
}

func (b *Bound) SessionID() string { return b.sessionID }

func (b *Bound) Read(ctx context.Context, key string) (string, bool, error) {
	if b.sessionID == "" {
		return "", false, ErrMissingSession
	}
	return b.backend.Get(ctx, b.sessionID, key)
}

func (b *Bound) Write(ctx context.Context, key, value string) error {
	if b.sessionID == "" {
		return ErrMissingSession
	}
	return b.backend.Set(ctx, b.sessionID, key, value)
}

// Memory keeps values for the lifetime of the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]map[string]string)}
}

func (m *Memory) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[sessionID][key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[sessionID] == nil {
		m.values[sessionID] = make(map[string]string)
	}
	m.values[sessionID][key] = value
	return nil
}
