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

// TransactionFilter narrows getTransactions results. Zero values mean
// "no constraint"; OwnerID is always required.
type TransactionFilter struct {
	OwnerID    int64
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID int64
	Type       core.TransactionType
}

const txSelect = `SELECT t.id, t.date, t.type, t.amount_cents, t.category_id, t.description,
	t.payment_method, t.notes, t.created_by_id, t.created_at, t.updated_at,
	c.id, c.name, c.type, c.color, c.created_by_id, c.created_at, c.updated_at
	FROM transactions t JOIN categories c ON t.category_id = c.id`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, type, amount_cents, category_id, description, payment_method, notes, created_by_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date.Format(core.DateLayout), string(t.Type), t.Amount.Cents, t.CategoryID,
		t.Description, t.PaymentMethod, t.Notes, t.CreatedByID,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"category_id", t.CategoryID)

	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, txSelect+" WHERE t.id = ?", id)
	return scanTransaction(row)
}

// ListTransactions returns transactions matching the filter, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	query := txSelect + " WHERE t.created_by_id = ?"
	args := []any{f.OwnerID}

	if f.StartDate != nil {
		query += " AND t.date >= ?"
		args = append(args, f.StartDate.Format(core.DateLayout))
	}
	if f.EndDate != nil {
		query += " AND t.date <= ?"
		args = append(args, f.EndDate.Format(core.DateLayout))
	}
	if f.CategoryID > 0 {
		query += " AND t.category_id = ?"
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		query += " AND t.type = ?"
		args = append(args, string(f.Type))
	}
	query += " ORDER BY t.date DESC, t.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, type = ?, amount_cents = ?, category_id = ?,
		 description = ?, payment_method = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		t.Date.Format(core.DateLayout), string(t.Type), t.Amount.Cents, t.CategoryID,
		t.Description, t.PaymentMethod, t.Notes, t.ID,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		c       core.Category
		dateStr string
		tTyp    string
		cTyp    string
	)
	err := row.Scan(&t.ID, &dateStr, &tTyp, &t.Amount.Cents, &t.CategoryID, &t.Description,
		&t.PaymentMethod, &t.Notes, &t.CreatedByID, &t.CreatedAt, &t.UpdatedAt,
		&c.ID, &c.Name, &cTyp, &c.Color, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	t.Date = date
	t.Type = core.TransactionType(tTyp)
	c.Type = core.TransactionType(cTyp)
	t.Category = &c
	return t, nil
}
