// Package storage provides the task record type and the backends that
// persist it.
//
// Every backend addresses a single named collection (a DynamoDB table, a
// Mongo collection or an SQL table) keyed by the task id. Backends only
// know how to create that collection, scan it, put a record and delete a
// record; ordering and failure policy live in the caller.
package storage

import (
	"context"
	"errors"
)

// DefaultPriority is assigned to tasks created or stored without a priority.
const DefaultPriority = 1

// ErrUnknownBackend is returned by NewBackend for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Task is a single to-do item.
type Task struct {
	// ID is generated by the application, never by the store.
	ID string `json:"id"`

	// Description is the free text entered by the user.
	Description string `json:"task"`

	// Priority orders the list; higher values come first.
	Priority int `json:"priority"`
}

// Backend is the contract every task store implements.
//
// All methods must be safe for concurrent use: the service shares one
// backend across all in-flight requests.
type Backend interface {
	// EnsureCollection creates the backing collection if it is absent and
	// waits, for a bounded time, until it accepts reads and writes.
	//
	// An already existing collection is not an error, and existing records
	// are left untouched.
	EnsureCollection(ctx context.Context) error

	// Scan returns every stored task. The order is whatever the store
	// yields. Returns an empty, non-nil slice when nothing is stored.
	Scan(ctx context.Context) ([]Task, error)

	// Put writes a task, replacing any record with the same id.
	Put(ctx context.Context, task Task) error

	// Delete removes the task with the given id. Deleting an id that does
	// not exist is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the client held by the backend.
	Close(ctx context.Context) error
}
