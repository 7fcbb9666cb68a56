// Package store provides the shared state document used to persist table
// snapshots and settlement history. The contract is five primitives:
// whole-subtree replace, partial multi-path update, append-only push of
// uniquely keyed children, change subscription with unsubscribe, and a
// bounded most-recent-N query. Nothing in the game core depends on a
// specific vendor.
package store

import (
	"context"
	"encoding/json"
)

// Event notifies subscribers that a path changed
type Event struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// Entry is a uniquely keyed child of a list-like path
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Store is the shared state document contract
type Store interface {
	// Replace overwrites the whole subtree at path
	Replace(ctx context.Context, path string, value interface{}) error

	// Update applies a partial multi-path update; each path is independent
	// and last-write-wins per path
	Update(ctx context.Context, values map[string]interface{}) error

	// Push appends a uniquely keyed child under a list-like path and
	// returns the generated key
	Push(ctx context.Context, path string, value interface{}) (string, error)

	// Recent returns the most recent n children of a list-like path,
	// newest first
	Recent(ctx context.Context, path string, n int) ([]Entry, error)

	// Subscribe delivers change events for path and its descendants.
	// The returned func unsubscribes and closes the channel.
	Subscribe(path string) (<-chan Event, func())

	// Close releases any underlying resources
	Close() error
}
