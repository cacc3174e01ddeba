package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buker/go-tasks/internal/storage"
)

func TestMemoryBackend_ImplementsBackend(t *testing.T) {
	var _ storage.Backend = (*storage.MemoryBackend)(nil)
}

func TestMemoryBackend_Contract(t *testing.T) {
	testBackendContract(t, storage.NewMemoryBackend())
}

func TestMemoryBackend_InsertionOrder(t *testing.T) {
	b := storage.NewMemoryBackend()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, b.Put(ctx, storage.Task{ID: id, Priority: 1}))
	}
	// Overwriting keeps the original slot.
	require.NoError(t, b.Put(ctx, storage.Task{ID: "c", Description: "again", Priority: 2}))

	got, err := b.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "again", got[0].Description)
}

func TestMemoryBackend_ScanReturnsCopy(t *testing.T) {
	b := storage.NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, storage.Task{ID: "a", Description: "orig", Priority: 1}))

	got, err := b.Scan(ctx)
	require.NoError(t, err)
	got[0].Description = "mutated"

	again, err := b.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "orig", again[0].Description)
}

func TestMemoryBackend_ConcurrentAccess(t *testing.T) {
	b := storage.NewMemoryBackend()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("task-%d", i)
			_ = b.Put(ctx, storage.Task{ID: id, Priority: i})
			_, _ = b.Scan(ctx)
			if i%2 == 0 {
				_ = b.Delete(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	got, err := b.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
