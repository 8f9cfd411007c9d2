package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession loads a session and its owning user. Expiry is the
// caller's concern; expired rows are still returned.
func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (core.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT s.token, s.user_id, s.expires_at, s.created_at, s.last_activity, `+userColumnsPrefixed+`
		 FROM sessions s JOIN users u ON s.user_id = u.id
		 WHERE s.token = ?`, token)

	var (
		s         core.Session
		u         core.User
		role      string
		createdBy sql.NullInt64
	)
	err := row.Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.LastActivity,
		&u.ID, &u.Username, &u.PasswordHash, &role, &u.IsActive,
		&u.MustChangePassword, &u.CreatedAt, &createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, core.ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("scan session: %w", err)
	}
	u.Role = core.Role(role)
	if createdBy.Valid {
		u.CreatedByID = &createdBy.Int64
	}
	s.User = &u
	return s, nil
}

const userColumnsPrefixed = "u.id, u.username, u.password_hash, u.role, u.is_active, u.must_change_password, u.created_at, u.created_by_id"

// ExtendSession pushes a session's expiry forward and stamps activity.
func (r *SQLiteRepository) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ?, last_activity = CURRENT_TIMESTAMP WHERE token = ?`,
		expiresAt.UTC(), token)
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (r *SQLiteRepository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
	return n, nil
}
