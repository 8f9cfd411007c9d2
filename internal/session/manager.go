// Package session implements token sessions with a rolling expiry.
// Tokens are opaque and persisted, so restarts keep users signed in
// until the expiry passes.
package session

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// Store is the persistence surface the manager needs.
type Store interface {
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	ExtendSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Create opens a new session for a user and returns it with a fresh
// token.
func (m *Manager) Create(ctx context.Context, user core.User) (core.Session, error) {
	now := m.now()
	s := core.Session{
		Token:        auth.NewSessionToken(),
		UserID:       user.ID,
		ExpiresAt:    now.Add(m.ttl),
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return core.Session{}, fmt.Errorf("open session: %w", err)
	}
	u := user.Sanitized()
	s.User = &u
	return s, nil
}

// Validate resolves a token to its session. A valid lookup extends the
// expiry by the full TTL, so sessions only lapse after a quiet period.
// Expired or unknown tokens, and sessions of deactivated users, come
// back as core.ErrUnauthorized.
func (m *Manager) Validate(ctx context.Context, token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, core.ErrUnauthorized
	}

	s, err := m.store.GetSession(ctx, token)
	if err != nil {
		return core.Session{}, core.ErrUnauthorized
	}

	now := m.now()
	if now.After(s.ExpiresAt) {
		_ = m.store.DeleteSession(ctx, token)
		return core.Session{}, core.ErrUnauthorized
	}
	if s.User == nil || !s.User.IsActive {
		_ = m.store.DeleteSession(ctx, token)
		return core.Session{}, core.ErrUnauthorized
	}

	s.ExpiresAt = now.Add(m.ttl)
	s.LastActivity = now
	if err := m.store.ExtendSession(ctx, token, s.ExpiresAt); err != nil {
		return core.Session{}, fmt.Errorf("extend session: %w", err)
	}
	return s, nil
}

// Destroy ends a session. Unknown tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	return m.store.DeleteSession(ctx, token)
}

// PurgeLoop removes expired sessions on an interval until ctx ends.
func (m *Manager) PurgeLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = m.store.PurgeExpiredSessions(ctx, m.now())
		}
	}
}
