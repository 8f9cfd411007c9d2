package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// AppendAudit records a single audit entry. Timestamps are assigned by
// the database.
func (r *SQLiteRepository) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, entity, entity_id, details) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Action, e.Entity, e.EntityID, e.Details,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListAuditLogs returns audit entries newest first, joined with the
// acting user's name. Entries survive user deletion; the username comes
// back empty in that case.
func (r *SQLiteRepository) ListAuditLogs(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	query := `SELECT a.id, a.user_id, COALESCE(u.username, ''), a.action, a.entity, a.entity_id, a.details, a.timestamp
		FROM audit_logs a LEFT JOIN users u ON a.user_id = u.id
		ORDER BY a.timestamp DESC, a.id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Action, &e.Entity,
			&e.EntityID, &e.Details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
