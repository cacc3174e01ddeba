package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/buker/go-tasks/internal/storage"
)

// newTestSQLiteBackend creates a SQLiteBackend in a directory managed by
// t.TempDir() and closes it when the test finishes.
func newTestSQLiteBackend(t *testing.T) (*storage.SQLiteBackend, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	b, err := storage.NewSQLiteBackend(dbPath, "tasks")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b, dbPath
}

// openDirectDB opens a direct sql.DB connection for schema verification,
// bypassing the backend abstraction.
func openDirectDB(t *testing.T, dbPath string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteBackend_ImplementsBackend(t *testing.T) {
	var _ storage.Backend = (*storage.SQLiteBackend)(nil)
}

func TestSQLiteBackend_Contract(t *testing.T) {
	b, _ := newTestSQLiteBackend(t)
	testBackendContract(t, b)
}

func TestSQLiteBackend_CreatesTable(t *testing.T) {
	b, dbPath := newTestSQLiteBackend(t)
	require.NoError(t, b.EnsureCollection(context.Background()))

	db := openDirectDB(t, dbPath)
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='tasks'`).Scan(&name)
	require.NoError(t, err, "tasks table not found")
	assert.Equal(t, "tasks", name)
}

func TestSQLiteBackend_WALMode(t *testing.T) {
	_, dbPath := newTestSQLiteBackend(t)

	db := openDirectDB(t, dbPath)
	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestSQLiteBackend_CreatesParentDirs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "a", "b", "c", "deep.db")

	b, err := storage.NewSQLiteBackend(dbPath, "tasks")
	require.NoError(t, err)
	defer func() { _ = b.Close(context.Background()) }()
	assert.NoError(t, b.EnsureCollection(context.Background()))
}

func TestSQLiteBackend_ScanKeepsInsertionOrder(t *testing.T) {
	b, _ := newTestSQLiteBackend(t)
	ctx := context.Background()
	require.NoError(t, b.EnsureCollection(ctx))

	for _, id := range []string{"z", "m", "a"} {
		require.NoError(t, b.Put(ctx, storage.Task{ID: id, Priority: 1}))
	}

	got, err := b.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"z", "m", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSQLiteBackend_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	first, err := storage.NewSQLiteBackend(dbPath, "tasks")
	require.NoError(t, err)
	require.NoError(t, first.EnsureCollection(ctx))
	require.NoError(t, first.Put(ctx, storage.Task{ID: "keep", Description: "persisted", Priority: 2}))
	require.NoError(t, first.Close(ctx))

	second, err := storage.NewSQLiteBackend(dbPath, "tasks")
	require.NoError(t, err)
	defer func() { _ = second.Close(ctx) }()
	require.NoError(t, second.EnsureCollection(ctx))

	got, err := second.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.Task{{ID: "keep", Description: "persisted", Priority: 2}}, got)
}

func TestSQLiteBackend_RejectsInvalidTableName(t *testing.T) {
	tests := []string{"", "1tasks", "tasks; DROP TABLE x", "my-tasks"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := storage.NewSQLiteBackend(filepath.Join(t.TempDir(), "t.db"), name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid table name")
		})
	}
}
