package storage

import (
	"context"
	"fmt"
)

type unavailableBackend struct {
	err error
}

// Unavailable returns a Backend whose every operation fails with err.
//
// main uses it when the configured store cannot even be constructed, so
// the service still starts and renders pages in degraded mode.
func Unavailable(err error) Backend {
	return &unavailableBackend{err: fmt.Errorf("store unavailable: %w", err)}
}

func (b *unavailableBackend) EnsureCollection(ctx context.Context) error { return b.err }

func (b *unavailableBackend) Scan(ctx context.Context) ([]Task, error) { return nil, b.err }

func (b *unavailableBackend) Put(ctx context.Context, task Task) error { return b.err }

func (b *unavailableBackend) Delete(ctx context.Context, id string) error { return b.err }

func (b *unavailableBackend) Close(ctx context.Context) error { return nil }
