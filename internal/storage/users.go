package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const userColumns = "id, username, password_hash, role, is_active, must_change_password, created_at, created_by_id"

// UserUpdate carries the optional fields of an updateUser command. Nil
// means "leave unchanged".
type UserUpdate struct {
	Role     *core.Role
	IsActive *bool
	// PasswordHash, when set, also flags must_change_password.
	PasswordHash *string
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string, role core.Role, createdByID *int64) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, is_active, must_change_password, created_by_id)
		 VALUES (?, ?, ?, 1, 1, ?)`,
		username, passwordHash, string(role), createdByID,
	)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username, "role", role)
	return r.GetUserByID(ctx, id)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (core.User, error) {
	if _, err := r.GetUserByID(ctx, id); err != nil {
		return core.User{}, err
	}

	if upd.Role != nil {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE users SET role = ? WHERE id = ?", string(*upd.Role), id); err != nil {
			return core.User{}, fmt.Errorf("update user role: %w", err)
		}
	}
	if upd.IsActive != nil {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE users SET is_active = ? WHERE id = ?", *upd.IsActive, id); err != nil {
			return core.User{}, fmt.Errorf("update user status: %w", err)
		}
	}
	if upd.PasswordHash != nil {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE users SET password_hash = ?, must_change_password = 1 WHERE id = ?",
			*upd.PasswordHash, id); err != nil {
			return core.User{}, fmt.Errorf("reset user password: %w", err)
		}
	}

	return r.GetUserByID(ctx, id)
}

// ChangePassword updates a user's hash and clears the forced-change flag.
func (r *SQLiteRepository) ChangePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, must_change_password = 0 WHERE id = ?",
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "User deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u         core.User
		role      string
		createdBy sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.IsActive,
		&u.MustChangePassword, &u.CreatedAt, &createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = core.Role(role)
	if createdBy.Valid {
		u.CreatedByID = &createdBy.Int64
	}
	return u, nil
}
