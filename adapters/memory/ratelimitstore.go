// Package memory provides in-memory implementations of storage ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hearthchat/hearth/domain/ratelimit"
	"github.com/hearthchat/hearth/ports"
)

// sweepEvery bounds how often the lazy eviction pass runs.
const sweepEvery = 1024

// RateLimitStore is an in-memory implementation of ports.RateLimitStore.
// It owns the bucket table: all mutation goes through the mutex, and a
// lazy sweep evicts buckets whose window expired more than a TTL ago so
// the key space stays bounded under churny traffic.
type RateLimitStore struct {
	mu      sync.RWMutex
	buckets map[string]ratelimit.Bucket
	maxKeys int
	ttl     time.Duration
	ops     int
	now     func() time.Time
}

// NewRateLimitStore creates a new in-memory rate limit store.
// maxKeys caps the bucket table; zero means the default of 10000.
func NewRateLimitStore(maxKeys int, ttl time.Duration) *RateLimitStore {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RateLimitStore{
		buckets: make(map[string]ratelimit.Bucket),
		maxKeys: maxKeys,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves the current bucket for a key.
func (s *RateLimitStore) Get(ctx context.Context, key string) (ratelimit.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets[key], nil
}

// Set updates the bucket for a key, sweeping stale entries periodically.
func (s *RateLimitStore) Set(ctx context.Context, key string, b ratelimit.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ops++
	if s.ops%sweepEvery == 0 || len(s.buckets) >= s.maxKeys {
		s.sweepLocked()
	}
	s.buckets[key] = b
	return nil
}

// Len returns the current bucket count (for testing and diagnostics).
func (s *RateLimitStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// SetNowFunc overrides the eviction clock (for testing).
func (s *RateLimitStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// sweepLocked drops buckets not refilled within the TTL. If the table is
// still over the cap afterwards, the oldest buckets go too. Caller holds
// the write lock.
func (s *RateLimitStore) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for k, b := range s.buckets {
		if b.LastReset.Before(cutoff) {
			delete(s.buckets, k)
		}
	}
	for len(s.buckets) >= s.maxKeys {
		var oldestKey string
		var oldest time.Time
		for k, b := range s.buckets {
			if oldestKey == "" || b.LastReset.Before(oldest) {
				oldestKey = k
				oldest = b.LastReset
			}
		}
		delete(s.buckets, oldestKey)
	}
}

// Ensure interface compliance.
var _ ports.RateLimitStore = (*RateLimitStore)(nil)
