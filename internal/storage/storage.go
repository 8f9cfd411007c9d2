// Package storage is the persistence gateway: a long-lived SQLite handle
// owned by the router, acquired at startup and released at shutdown.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrCategoryInUse is returned when deleting a category that is still
// referenced by transactions.
var ErrCategoryInUse = errors.New("category has existing transactions")

type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the location of the backing database file.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// BackupTo copies the database file to dest. The WAL is flushed first so
// the copy is self-contained.
func (r *SQLiteRepository) BackupTo(ctx context.Context, dest string) error {
	if _, err := r.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint database: %w", err)
	}
	if err := copyFile(r.path, dest); err != nil {
		return fmt.Errorf("copy database file: %w", err)
	}
	slog.InfoContext(ctx, "Database backed up", "source", r.path, "dest", dest)
	return nil
}

// RestoreFrom overwrites the database file from src. The handle keeps
// serving the old snapshot until the process restarts; callers must flag
// a restart.
func (r *SQLiteRepository) RestoreFrom(ctx context.Context, src string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("stat restore source: %w", err)
	}
	if err := copyFile(src, r.path); err != nil {
		return fmt.Errorf("overwrite database file: %w", err)
	}
	slog.InfoContext(ctx, "Database restored, restart required", "source", src, "dest", r.path)
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
