// Package kvstore holds short-lived counters and flags (OTP attempt
// tracking, upload rate limits) behind an interface so a single instance can
// keep them in memory while a multi-instance deployment points them at Redis.
package kvstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("kvstore: key not found")

type Store interface {
	// Incr increments key and returns the new value. The TTL is applied when
	// the key is created and is not extended by later increments.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
