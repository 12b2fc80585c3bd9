package types

import (
	"context"
	"time"
)

// CoordinationStore is the shared ephemeral key-value service backing locks,
// mirrored load counters, and worker presence.
//
// Its atomic conditional-set (SetIfAbsent) is the only true mutual-exclusion
// primitive in the system. Nothing stored here is durable: keys expire and
// absence carries meaning (an absent lock key means unlocked).
type CoordinationStore interface {
	// SetIfAbsent atomically sets key to value with the given TTL if and only
	// if the key does not exist. Returns true when this call created the key.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Set unconditionally sets key to value with the given TTL. A TTL of
	// zero stores the key without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// IncrByFloat atomically adds delta to the numeric value at key, creating
	// it at zero when absent, and returns the new value.
	IncrByFloat(ctx context.Context, key string, delta float64) (float64, error)

	// Expire resets the key's TTL. Returns false when the key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL returns the key's remaining time to live. Returns ErrKeyNotFound
	// for absent keys and a zero duration for keys without expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Keys returns the keys matching a "prefix*" pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
