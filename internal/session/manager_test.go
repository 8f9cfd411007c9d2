package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

type fakeStore struct {
	sessions map[string]core.Session
	users    map[int64]core.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]core.Session{},
		users:    map[int64]core.User{},
	}
}

func (f *fakeStore) CreateSession(_ context.Context, s core.Session) error {
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, token string) (core.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return core.Session{}, core.ErrNotFound
	}
	if u, ok := f.users[s.UserID]; ok {
		s.User = &u
	}
	return s, nil
}

func (f *fakeStore) ExtendSession(_ context.Context, token string, expiresAt time.Time) error {
	s, ok := f.sessions[token]
	if !ok {
		return core.ErrNotFound
	}
	s.ExpiresAt = expiresAt
	f.sessions[token] = s
	return nil
}

func (f *fakeStore) DeleteSession(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeStore) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for tok, s := range f.sessions {
		if s.ExpiresAt.Before(now) {
			delete(f.sessions, tok)
			n++
		}
	}
	return n, nil
}

func newTestManager(store *fakeStore, at time.Time) *Manager {
	m := NewManager(store, 7*24*time.Hour)
	m.now = func() time.Time { return at }
	return m
}

func TestCreateIssuesDistinctTokens(t *testing.T) {
	store := newFakeStore()
	user := core.User{ID: 1, Username: "alice", IsActive: true}
	store.users[1] = user
	m := newTestManager(store, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	a, err := m.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := m.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if a.Token == "" || a.Token == b.Token {
		t.Errorf("expected distinct non-empty tokens, got %q and %q", a.Token, b.Token)
	}
	want := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	if !a.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", a.ExpiresAt, want)
	}
	if a.User == nil || a.User.PasswordHash != "" {
		t.Error("session user should be present with the hash stripped")
	}
}

func TestValidateExtendsExpiry(t *testing.T) {
	store := newFakeStore()
	user := core.User{ID: 1, Username: "alice", IsActive: true}
	store.users[1] = user
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(store, start)

	s, err := m.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Three days later the session is still valid and gets a fresh
	// seven day window.
	m.now = func() time.Time { return start.Add(3 * 24 * time.Hour) }
	got, err := m.Validate(context.Background(), s.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := start.Add(10 * 24 * time.Hour)
	if !got.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
	}
}

func TestValidateRejections(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(store *fakeStore, m *Manager) string
	}{
		{
			name: "empty token",
			setup: func(store *fakeStore, m *Manager) string {
				return ""
			},
		},
		{
			name: "unknown token",
			setup: func(store *fakeStore, m *Manager) string {
				return "no-such-token"
			},
		},
		{
			name: "expired session",
			setup: func(store *fakeStore, m *Manager) string {
				user := core.User{ID: 1, IsActive: true}
				store.users[1] = user
				s, _ := m.Create(context.Background(), user)
				m.now = func() time.Time { return start.Add(8 * 24 * time.Hour) }
				return s.Token
			},
		},
		{
			name: "deactivated user",
			setup: func(store *fakeStore, m *Manager) string {
				user := core.User{ID: 1, IsActive: true}
				store.users[1] = user
				s, _ := m.Create(context.Background(), user)
				user.IsActive = false
				store.users[1] = user
				return s.Token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			m := newTestManager(store, start)
			token := tt.setup(store, m)

			_, err := m.Validate(context.Background(), token)
			if !errors.Is(err, core.ErrUnauthorized) {
				t.Errorf("Validate() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestExpiredValidationRemovesSession(t *testing.T) {
	store := newFakeStore()
	user := core.User{ID: 1, IsActive: true}
	store.users[1] = user
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(store, start)

	s, _ := m.Create(context.Background(), user)
	m.now = func() time.Time { return start.Add(8 * 24 * time.Hour) }

	if _, err := m.Validate(context.Background(), s.Token); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("Validate() error = %v, want ErrUnauthorized", err)
	}
	if _, ok := store.sessions[s.Token]; ok {
		t.Error("expired session should have been deleted")
	}
}

func TestDestroy(t *testing.T) {
	store := newFakeStore()
	user := core.User{ID: 1, IsActive: true}
	store.users[1] = user
	m := newTestManager(store, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	s, _ := m.Create(context.Background(), user)
	if err := m.Destroy(context.Background(), s.Token); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := m.Validate(context.Background(), s.Token); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("Validate() after Destroy error = %v, want ErrUnauthorized", err)
	}
}
