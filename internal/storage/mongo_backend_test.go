package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/buker/go-tasks/internal/storage"
)

// newTestMongoBackend starts a MongoDB container and returns a backend on a
// fresh collection. Skips when Docker is not available.
func newTestMongoBackend(t *testing.T) *storage.MongoBackend {
	t.Helper()

	if !dockerAvailable() {
		t.Skip("Docker not available, skipping MongoDB integration tests")
	}

	ctx := context.Background()
	ctr, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Skipf("failed to start MongoDB container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	b, err := storage.NewMongoBackend(ctx, uri, "tasks", "tasks", 10, 200*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func TestMongoBackend_ImplementsBackend(t *testing.T) {
	var _ storage.Backend = (*storage.MongoBackend)(nil)
}

func TestMongoBackend_EmptyURI(t *testing.T) {
	_, err := storage.NewMongoBackend(context.Background(), "", "tasks", "tasks", 1, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestMongoBackend_Contract(t *testing.T) {
	testBackendContract(t, newTestMongoBackend(t))
}
