package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresSchemaDDL creates the task table. created_at gives Scan a stable
// order; %s is the validated table name.
const postgresSchemaDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    priority INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresBackend stores tasks in a PostgreSQL table through a pgx pool.
type PostgresBackend struct {
	pool          *pgxpool.Pool
	table         string
	readyAttempts int
	readyDelay    time.Duration
}

// NewPostgresBackend creates the connection pool for connString. Connections
// are opened on demand; EnsureCollection verifies the server is reachable.
func NewPostgresBackend(ctx context.Context, connString, table string, readyAttempts int, readyDelay time.Duration) (*PostgresBackend, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &PostgresBackend{
		pool:          pool,
		table:         table,
		readyAttempts: readyAttempts,
		readyDelay:    readyDelay,
	}, nil
}

// EnsureCollection waits for the server to answer a ping, then runs
// CREATE TABLE IF NOT EXISTS.
func (b *PostgresBackend) EnsureCollection(ctx context.Context) error {
	if err := waitReady(ctx, b.readyAttempts, b.readyDelay, b.pool.Ping); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := b.pool.Exec(ctx, fmt.Sprintf(postgresSchemaDDL, b.table)); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	return nil
}

// Scan returns all tasks in creation order.
func (b *PostgresBackend) Scan(ctx context.Context) ([]Task, error) {
	rows, err := b.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, description, priority FROM %s ORDER BY created_at, id`, b.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

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
func (b *PostgresBackend) Put(ctx context.Context, task Task) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, description, priority) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET description = EXCLUDED.description, priority = EXCLUDED.priority`,
		b.table),
		task.ID, task.Description, task.Priority,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	return nil
}

// Delete removes the row for id; zero affected rows is not an error.
func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, b.table), id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// Close closes the pool.
func (b *PostgresBackend) Close(ctx context.Context) error {
	b.pool.Close()
	return nil
}
