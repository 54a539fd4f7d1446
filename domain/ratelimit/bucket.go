// Package ratelimit provides pure token bucket rate limiting.
// All functions are deterministic - same input always produces same output.
package ratelimit

import "time"

// Bucket represents the current state of a token bucket (value type).
type Bucket struct {
	Tokens    int       // Tokens remaining in current window
	LastReset time.Time // When the bucket was last refilled
}

// Config holds rate limit configuration (value type).
type Config struct {
	Limit  int           // Admissions per window
	Window time.Duration // Window duration
}

// Result represents the outcome of an admission check (value type).
type Result struct {
	Allowed   bool
	Remaining int       // Tokens remaining after this check
	ResetAt   time.Time // When the bucket next refills
}

// Check performs an admission check against a bucket.
// The window reset is lazy: if more than one window has elapsed since the
// last refill, the bucket refills to the full limit. This is a fixed window,
// not a sliding one - a burst straddling a window boundary can admit close
// to 2x the limit. Callers accept that approximation.
//
// This is a PURE function. The caller must persist the returned bucket.
func Check(b Bucket, cfg Config, now time.Time) (Result, Bucket) {
	if b.LastReset.IsZero() || now.Sub(b.LastReset) > cfg.Window {
		b = Bucket{Tokens: cfg.Limit, LastReset: now}
	}

	resetAt := b.LastReset.Add(cfg.Window)

	if b.Tokens <= 0 {
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   resetAt,
		}, b
	}

	b.Tokens--
	return Result{
		Allowed:   true,
		Remaining: b.Tokens,
		ResetAt:   resetAt,
	}, b
}

// RetryAfter returns how long a denied caller should wait before retrying.
// This is a PURE function.
func RetryAfter(r Result, now time.Time) time.Duration {
	if r.Allowed {
		return 0
	}
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
