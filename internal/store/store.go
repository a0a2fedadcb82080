// Package store provides the key-value persistence capability backing viewer
// personalization state: the affinity profile blob, the bounded behavior
// history, and per-video watched/liked markers. Writes are last-write-wins
// with no transactional guarantee; this is advisory state, not
// correctness-critical.
package store

import "context"

type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// PushCapped prepends value to the list at key, keeping at most max
	// entries (oldest dropped).
	PushCapped(ctx context.Context, key, value string, max int) error
	// List returns the list at key, newest first.
	List(ctx context.Context, key string) ([]string, error)
}
