// Package tasks is the application's single entry point to the task store.
//
// Accessor applies the service's failure policy on top of a
// storage.Backend: every store failure is logged and turned into an empty
// or no-op result, so pages always render. Errors are still returned so
// handlers can show them or report them.
package tasks

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/buker/go-tasks/internal/storage"
)

// Accessor is safe for concurrent use.
type Accessor struct {
	backend  storage.Backend
	log      log.FieldLogger
	newID    func() string
	degraded atomic.Bool
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithLogger sets the logger; defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(a *Accessor) { a.log = l }
}

// WithIDGenerator replaces the UUIDv4 id generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Accessor) { a.newID = fn }
}

// NewAccessor wraps backend. The accessor starts healthy; call
// EnsureCollection once at startup.
func NewAccessor(backend storage.Backend, opts ...Option) *Accessor {
	a := &Accessor{
		backend: backend,
		log:     log.StandardLogger(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EnsureCollection creates the backing collection if needed and waits for
// it to be ready. A failure is logged and leaves the accessor degraded;
// the error is returned for reporting only and must not stop startup.
func (a *Accessor) EnsureCollection(ctx context.Context) error {
	if err := a.backend.EnsureCollection(ctx); err != nil {
		a.degraded.Store(true)
		a.log.WithError(err).Error("Error creating collection")
		return err
	}
	a.degraded.Store(false)
	a.log.Info("Collection ready")
	return nil
}

// Degraded reports whether the last EnsureCollection failed.
func (a *Accessor) Degraded() bool {
	return a.degraded.Load()
}

// ListAll returns every task, highest priority first. Tasks of equal
// priority keep the order the store returned them in. On failure the
// result is an empty, non-nil slice together with the error.
func (a *Accessor) ListAll(ctx context.Context) ([]storage.Task, error) {
	tasks, err := a.backend.Scan(ctx)
	if err != nil {
		a.log.WithError(err).Error("Error retrieving tasks")
		return make([]storage.Task, 0), err
	}
	if tasks == nil {
		tasks = make([]storage.Task, 0)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority > tasks[j].Priority
	})
	return tasks, nil
}

// Insert stores a new task under a freshly generated id and returns it.
// On failure nothing is created, the error is logged and returned with
// an empty id.
func (a *Accessor) Insert(ctx context.Context, description string, priority int) (string, error) {
	task := storage.Task{
		ID:          a.newID(),
		Description: description,
		Priority:    priority,
	}

	if err := a.backend.Put(ctx, task); err != nil {
		a.log.WithError(err).WithField("id", task.ID).Error("Error adding task")
		return "", err
	}

	a.log.WithFields(log.Fields{"id": task.ID, "priority": priority}).Debug("Task added")
	return task.ID, nil
}

// Delete removes the task with id. Unknown ids are not an error. Failures
// are logged and returned.
func (a *Accessor) Delete(ctx context.Context, id string) error {
	if err := a.backend.Delete(ctx, id); err != nil {
		a.log.WithError(err).WithField("id", id).Error("Error deleting task")
		return err
	}

	a.log.WithField("id", id).Debug("Task deleted")
	return nil
}

// Close releases the backend.
func (a *Accessor) Close(ctx context.Context) error {
	return a.backend.Close(ctx)
}
