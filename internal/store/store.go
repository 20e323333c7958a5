// Package store is the realtime document store tables publish to.
//
// Every table is one JSON document. Writers replace or merge documents and
// every subscriber is pushed the full document after each write.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrExists    = errors.New("store: document already exists")
	ErrNotObject = errors.New("store: document is not a JSON object")
)

// Change is one pushed notification
type Change struct {
	ID      string
	Doc     json.RawMessage
	Deleted bool
}

// Store is a set of JSON documents with push subscriptions
type Store interface {
	Create(ctx context.Context, id string, doc []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, doc []byte) error
	// Update merges the top-level fields of patch into the document
	Update(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, id string) error
	// Subscribe calls fn with the current document and after every later
	// write. Intermediate versions may be skipped, the latest never is.
	Subscribe(id string, fn func(Change)) (cancel func())
}
