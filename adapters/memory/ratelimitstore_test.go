package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hearthchat/hearth/adapters/memory"
	"github.com/hearthchat/hearth/domain/ratelimit"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func TestRateLimitStore_GetSet(t *testing.T) {
	store := memory.NewRateLimitStore(100, time.Minute)
	ctx := context.Background()

	// Missing key yields the zero bucket.
	b, err := store.Get(ctx, "chat_ip:1.2.3.4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Tokens != 0 || !b.LastReset.IsZero() {
		t.Errorf("expected zero bucket, got %+v", b)
	}

	want := ratelimit.Bucket{Tokens: 7, LastReset: baseTime}
	if err := store.Set(ctx, "chat_ip:1.2.3.4", want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "chat_ip:1.2.3.4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRateLimitStore_SweepsExpired(t *testing.T) {
	store := memory.NewRateLimitStore(50, time.Minute)
	store.SetNowFunc(func() time.Time { return baseTime.Add(10 * time.Minute) })
	ctx := context.Background()

	// Fill to the cap with buckets whose windows expired long ago.
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("chat_user:u%d", i)
		if err := store.Set(ctx, key, ratelimit.Bucket{Tokens: 1, LastReset: baseTime}); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	// The next write triggers a sweep; every stale bucket goes.
	fresh := ratelimit.Bucket{Tokens: 1, LastReset: baseTime.Add(10 * time.Minute)}
	if err := store.Set(ctx, "chat_user:fresh", fresh); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got := store.Len(); got != 1 {
		t.Errorf("len = %d, want 1 after sweep", got)
	}
}

func TestRateLimitStore_EvictsOldestAtCap(t *testing.T) {
	store := memory.NewRateLimitStore(10, time.Hour)
	store.SetNowFunc(func() time.Time { return baseTime })
	ctx := context.Background()

	// All buckets inside the TTL, so the cap forces oldest-first eviction.
	for i := 0; i < 30; i++ {
		key := fmt.Sprintf("chat_ip:ip%d", i)
		b := ratelimit.Bucket{Tokens: 1, LastReset: baseTime.Add(time.Duration(i) * time.Second)}
		if err := store.Set(ctx, key, b); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	if got := store.Len(); got > 10 {
		t.Errorf("len = %d, want at most the configured cap of 10", got)
	}

	// The newest bucket survives.
	b, _ := store.Get(ctx, "chat_ip:ip29")
	if b.LastReset.IsZero() {
		t.Error("expected newest bucket to survive eviction")
	}
}

func TestRateLimitStore_DefaultCap(t *testing.T) {
	store := memory.NewRateLimitStore(0, 0)
	ctx := context.Background()

	if err := store.Set(ctx, "k", ratelimit.Bucket{Tokens: 1, LastReset: baseTime}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := store.Len(); got != 1 {
		t.Errorf("len = %d, want 1", got)
	}
}
