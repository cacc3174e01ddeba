package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps tasks in process memory, in insertion order.
//
// Nothing survives a restart. It backs local runs without any external
// store and the handler tests.
type MemoryBackend struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]Task
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tasks: make(map[string]Task)}
}

// EnsureCollection is a no-op; the map exists from construction.
func (b *MemoryBackend) EnsureCollection(ctx context.Context) error {
	return nil
}

// Scan returns a copy of all tasks in insertion order.
func (b *MemoryBackend) Scan(ctx context.Context) ([]Task, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Task, 0, len(b.order))
	for _, id := range b.order {
		result = append(result, b.tasks[id])
	}
	return result, nil
}

// Put stores task. Replacing an existing id keeps its original position.
func (b *MemoryBackend) Put(ctx context.Context, task Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tasks[task.ID]; !ok {
		b.order = append(b.order, task.ID)
	}
	b.tasks[task.ID] = task
	return nil
}

// Delete removes id if present.
func (b *MemoryBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tasks[id]; !ok {
		return nil
	}
	delete(b.tasks, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close(ctx context.Context) error {
	return nil
}
