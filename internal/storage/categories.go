package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const categoryColumns = "id, name, type, color, created_by_id, created_at, updated_at"

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, color, created_by_id) VALUES (?, ?, ?, ?)`,
		c.Name, string(c.Type), c.Color, c.CreatedByID,
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name, "type", c.Type)
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	return scanCategory(row)
}

// ListCategories returns the categories owned by a user, ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE created_by_id = ? ORDER BY name", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		c.Name, string(c.Type), c.Color, c.ID,
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return r.GetCategory(ctx, c.ID)
}

// DeleteCategory removes a category. Deletion is blocked while any
// transaction still references it.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	var refs int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE category_id = ?", id).Scan(&refs); err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return ErrCategoryInUse
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	err := row.Scan(&c.ID, &c.Name, &typ, &c.Color, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.Type = core.TransactionType(typ)
	return c, nil
}
