package httpapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/mirror"
)

var ErrMissingSession = errors.New("missing session id")

const (
	defaultSessionIdle = 30 * time.Minute
	sessionSweepEvery  = time.Minute
)

type session struct {
	store    *cart.Store
	lastSeen time.Time
}

type SessionOption func(*SessionRegistry)

// WithSessionIdle sets how long an unused store stays in memory.
func WithSessionIdle(d time.Duration) SessionOption {
	return func(r *SessionRegistry) {
		if d > 0 {
			r.idle = d
		}
	}
}

// SessionRegistry owns one cart.Store per session id. Stores are created on
// first use and hydrate from the session's slice of the mirror backend.
// Stores idle for longer than the idle window are dropped and re-hydrate
// from the mirror when the session comes back.
type SessionRegistry struct {
	backend mirror.Backend
	logger  *zap.Logger
	idle    time.Duration

	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time
	now       func() time.Time
}

func NewSessionRegistry(backend mirror.Backend, logger *zap.Logger, opts ...SessionOption) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &SessionRegistry{
		backend:  backend,
		logger:   logger,
		idle:     defaultSessionIdle,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the hydrated store of sessionID.
func (r *SessionRegistry) Store(ctx context.Context, sessionID string) (*cart.Store, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	r.mu.Lock()
	now := r.now()
	if now.Sub(r.lastSweep) > sessionSweepEvery {
		r.sweep(now)
		r.lastSweep = now
	}
	sess, ok := r.sessions[sessionID]
	if !ok {
		sess = &session{store: cart.NewStore(
			mirror.Session(r.backend, sessionID),
			cart.WithLogger(r.logger.With(zap.String("session_id", sessionID))),
		)}
		r.sessions[sessionID] = sess
	}
	sess.lastSeen = now
	r.mu.Unlock()

	if err := sess.store.WaitReady(ctx); err != nil {
		return nil, err
	}
	return sess.store, nil
}

// sweep must be called with mu held.
func (r *SessionRegistry) sweep(now time.Time) {
	evicted := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idle {
			delete(r.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Debug("idle carts evicted", zap.Int("evicted", evicted), zap.Int("remaining", len(r.sessions)))
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
