package ratelimiter

import (
	"context"
	"time"
)

// Config is the rate-limit policy for one bucket.
type Config struct {
	// Limit is the number of requests admitted per window.
	Limit int
	// Remember is the window length for an unlimited bucket.
	Remember time.Duration
	// Punishment is the window extension applied once a bucket becomes limited.
	Punishment time.Duration
	// Strict re-arms the punishment window on every request made while limited.
	Strict bool
}

// Validate checks the policy is usable.
func (c Config) Validate() error {
	if c.Limit <= 0 || c.Remember <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result reports the bucket state after one check-then-admit operation.
// It carries everything needed for the standard X-RateLimit-* headers.
type Result struct {
	// Limited is true when the request was rejected.
	Limited bool
	// Limit echoes the configured window limit.
	Limit int
	// Remaining is limit minus admitted count, floored at zero.
	Remaining int
	// ResetAt is the bucket's windowEnd: when the whole bucket is evicted.
	ResetAt time.Time
}

// ResetAfter returns the time until the bucket resets, floored at zero.
func (r *Result) ResetAfter() time.Duration {
	d := time.Until(r.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// Store is the bucket backend contract. Take is the atomic check-then-admit
// unit: implementations must not allow another Take on the same keys to
// interleave between the check and the admission.
type Store interface {
	// Take checks the (clientKey, routeKey) bucket and admits the request if
	// it is not limited, all as one atomic operation.
	Take(ctx context.Context, clientKey, routeKey string, cfg Config) (*Result, error)
	// Peek reports the bucket state without consuming capacity.
	Peek(ctx context.Context, clientKey, routeKey string, cfg Config) (*Result, error)
	// Reset drops the bucket for the pair, restoring full capacity.
	Reset(ctx context.Context, clientKey, routeKey string) error
}

// bucketKey joins the pair into one backend key. The separator cannot appear
// in IPs, tokens or URL paths, keeping pairs collision-free.
func bucketKey(clientKey, routeKey string) string {
	return clientKey + "\x1f" + routeKey
}
