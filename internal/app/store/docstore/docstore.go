// Package docstore is the key-path document database the repositories
// are written against. Documents live at slash-separated paths such as
// "topics/{topicID}" or "topics/{topicID}/posts/{postID}"; the concrete
// backend (MongoDB in production, an in-memory store in tests) decides
// how paths map onto physical storage.
//
// The transaction contract: reads inside RunTxn observe a consistent
// snapshot, writes commit atomically together, and the adapter retries
// a bounded number of times when the backend detects a conflicting
// concurrent write, after which ErrTxnConflict surfaces. Logical
// conflicts (two user-visible edits racing) are the caller's problem;
// that is what the repository's version check is for.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNoDocument is returned by Get when nothing exists at the path.
	ErrNoDocument = errors.New("no document at path")
	// ErrTxnConflict is returned when a transaction kept colliding with
	// concurrent writers and the retry budget ran out.
	ErrTxnConflict = errors.New("transaction conflict")
)

// Store is the backend-neutral document database contract.
type Store interface {
	// Get fetches the document at a document path.
	Get(ctx context.Context, path string) (Document, error)
	// Put creates or replaces the document at a document path.
	Put(ctx context.Context, path string, fields Fields) error
	// Update merges partial fields into an existing document. Values of
	// type Union or Remove perform commutative set mutation and are safe
	// to issue outside a transaction.
	Update(ctx context.Context, path string, fields Fields) error
	// Delete removes the document at a document path. Deleting an absent
	// document is not an error.
	Delete(ctx context.Context, path string) error
	// Query returns the documents of a collection path matching every
	// equality predicate in filter (nil filter matches all).
	Query(ctx context.Context, collectionPath string, filter Fields) ([]Document, error)
	// RunTxn executes fn under the transaction contract above.
	RunTxn(ctx context.Context, fn func(tx Txn) error) error
	// Batch starts an atomic multi-delete.
	Batch() Batch
	// Watch streams change events for a collection path until ctx ends.
	// Only the latest state is guaranteed; slow consumers may miss
	// intermediate snapshots.
	Watch(ctx context.Context, collectionPath string) (<-chan Event, error)
	// NewID mints a store-assigned document identifier.
	NewID() string
}

// Txn is the handle passed to a RunTxn callback.
type Txn interface {
	Get(path string) (Document, error)
	Put(path string, fields Fields)
	Update(path string, fields Fields)
	Delete(path string)
}

// Batch accumulates deletes that commit atomically: after Commit either
// every listed document is gone or none is.
type Batch interface {
	Delete(path string)
	Commit(ctx context.Context) error
}

// EventType distinguishes watch events.
type EventType string

const (
	EventPut    EventType = "put"    // create or replace or update
	EventDelete EventType = "delete"
)

// Event is one change observed by a watcher.
type Event struct {
	Type EventType
	Path string
	Doc  Document // zero for deletes
}
