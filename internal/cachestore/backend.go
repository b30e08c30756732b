// Package cachestore provides the key/value backend shared by the quota
// guard, the content cache and the generation lock. Every mutation that can
// race across workers or processes is exposed as a single atomic primitive so
// callers never compose read-modify-write sequences themselves.
package cachestore

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Backend is the storage contract. Implementations must be safe for
// concurrent use from multiple goroutines, and the Redis implementation is
// additionally safe across processes.
type Backend interface {
	// Get returns the stored bytes or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores val under key for ttl (ttl <= 0 means no expiry).
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// SetNX stores val only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// GetInt reads a counter; a missing key reads as 0.
	GetInt(ctx context.Context, key string) (int64, error)
	// IncrInit increments key by one, creating it at 1 with ttl when absent.
	// The ttl is applied only on creation.
	IncrInit(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// IncrIfBelow increments key only while its current value is < limit.
	// It returns the resulting value and whether the increment happened.
	IncrIfBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error)
}
