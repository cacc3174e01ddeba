package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver
)

// sqliteSchemaDDL creates the task table; rowid keeps insertion order.
const sqliteSchemaDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    priority INTEGER NOT NULL DEFAULT 1
)`

// SQLiteBackend stores tasks in a local SQLite file. It is meant for
// single-node deployments and development without network services.
type SQLiteBackend struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	db    *sql.DB
	table string
}

// NewSQLiteBackend opens dbPath, creating parent directories as needed,
// and switches the database to WAL mode.
func NewSQLiteBackend(dbPath, table string) (*SQLiteBackend, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return &SQLiteBackend{DBPath: dbPath, db: db, table: table}, nil
}

// EnsureCollection runs CREATE TABLE IF NOT EXISTS. A local file needs no
// readiness wait.
func (b *SQLiteBackend) EnsureCollection(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, fmt.Sprintf(sqliteSchemaDDL, b.table)); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	return nil
}

// Scan returns all tasks in insertion order.
func (b *SQLiteBackend) Scan(ctx context.Context) ([]Task, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, description, priority FROM %s ORDER BY rowid`, b.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]Task, 0)
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.Description, &task.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// Put inserts task or overwrites the row with the same id.
func (b *SQLiteBackend) Put(ctx context.Context, task Task) error {
	_, err := b.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, description, priority) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET description = excluded.description, priority = excluded.priority`,
		b.table),
		task.ID, task.Description, task.Priority,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	return nil
}

// Delete removes the row for id; zero affected rows is not an error.
func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, b.table), id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// Close closes the database handle.
func (b *SQLiteBackend) Close(ctx context.Context) error {
	return b.db.Close()
}
