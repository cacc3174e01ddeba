package storage_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buker/go-tasks/internal/storage"
)

// dockerAvailable checks whether the Docker daemon is reachable.
// testcontainers-go panics (rather than returning an error) when Docker
// is not installed, so we probe for it up-front.
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// testBackendContract exercises the behaviour every Backend shares. b must
// be freshly created and empty.
func testBackendContract(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, b.EnsureCollection(ctx), "first EnsureCollection")

	t.Run("fresh collection is empty", func(t *testing.T) {
		got, err := b.Scan(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	milk := storage.Task{ID: "id-milk", Description: "Buy milk", Priority: 3}
	rent := storage.Task{ID: "id-rent", Description: "Pay rent", Priority: 9}

	t.Run("put then scan", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, milk))
		require.NoError(t, b.Put(ctx, rent))

		got, err := b.Scan(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []storage.Task{milk, rent}, got)
	})

	t.Run("put replaces same id", func(t *testing.T) {
		updated := storage.Task{ID: milk.ID, Description: "Buy oat milk", Priority: 4}
		require.NoError(t, b.Put(ctx, updated))

		got, err := b.Scan(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []storage.Task{updated, rent}, got)
		require.NoError(t, b.Put(ctx, milk))
	})

	t.Run("ensure again keeps data", func(t *testing.T) {
		require.NoError(t, b.EnsureCollection(ctx))

		got, err := b.Scan(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("delete removes only that id", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, milk.ID))

		got, err := b.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, []storage.Task{rent}, got)
	})

	t.Run("delete unknown id is not an error", func(t *testing.T) {
		require.NoError(t, b.Delete(ctx, "no-such-id"))
		require.NoError(t, b.Delete(ctx, milk.ID))

		got, err := b.Scan(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("unicode and empty descriptions", func(t *testing.T) {
		odd := []storage.Task{
			{ID: "id-empty", Description: "", Priority: 1},
			{ID: "id-unicode", Description: "Café ☕ 日本語", Priority: -5},
		}
		for _, task := range odd {
			require.NoError(t, b.Put(ctx, task))
		}

		got, err := b.Scan(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, append([]storage.Task{rent}, odd...), got)
	})
}
