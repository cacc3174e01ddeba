// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"github.com/buker/go-tasks/internal/storage"
)

// FakeBackend is an in-memory storage.Backend with error injection.
// A non-nil *Err field makes the matching method fail without touching
// the stored tasks.
type FakeBackend struct {
	*storage.MemoryBackend

	mu          sync.Mutex
	ensureCalls int
	putCalls    int
	deleteCalls int

	EnsureErr error
	ScanErr   error
	PutErr    error
	DeleteErr error
}

// NewFakeBackend returns an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{MemoryBackend: storage.NewMemoryBackend()}
}

// Seed stores tasks in order, bypassing error injection.
func (f *FakeBackend) Seed(tasks ...storage.Task) {
	for _, t := range tasks {
		_ = f.MemoryBackend.Put(context.Background(), t)
	}
}

// EnsureCollection implements storage.Backend.
func (f *FakeBackend) EnsureCollection(ctx context.Context) error {
	f.mu.Lock()
	f.ensureCalls++
	f.mu.Unlock()
	if f.EnsureErr != nil {
		return f.EnsureErr
	}
	return f.MemoryBackend.EnsureCollection(ctx)
}

// Scan implements storage.Backend.
func (f *FakeBackend) Scan(ctx context.Context) ([]storage.Task, error) {
	if f.ScanErr != nil {
		return nil, f.ScanErr
	}
	return f.MemoryBackend.Scan(ctx)
}

// Put implements storage.Backend.
func (f *FakeBackend) Put(ctx context.Context, task storage.Task) error {
	f.mu.Lock()
	f.putCalls++
	f.mu.Unlock()
	if f.PutErr != nil {
		return f.PutErr
	}
	return f.MemoryBackend.Put(ctx, task)
}

// Delete implements storage.Backend.
func (f *FakeBackend) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleteCalls++
	f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	return f.MemoryBackend.Delete(ctx, id)
}

// EnsureCalls reports how many times EnsureCollection ran.
func (f *FakeBackend) EnsureCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureCalls
}

// PutCalls reports how many times Put ran.
func (f *FakeBackend) PutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCalls
}

// DeleteCalls reports how many times Delete ran.
func (f *FakeBackend) DeleteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteCalls
}
