// Package store defines the persistence surface interface and its backends.
package store

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for keys a backend cannot address.
var ErrInvalidKey = errors.New("store: invalid key")

// Surface is a string key-value store. Each Set replaces the whole value
// for its key atomically; there are no multi-key transactions.
type Surface interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Returns true if it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Keys returns all keys in sorted order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}
