package ratelimit

import (
	"testing"
	"time"

	"github.com/memohai/openchat-bot/internal/logger"
)

func TestAllowRespectsBurstPerKey(t *testing.T) {
	t.Parallel()
	l := New(logger.Discard(), 1, 2)
	fixed := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return fixed }

	if !l.Allow("alice") || !l.Allow("alice") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("alice") {
		t.Fatal("third request in the same instant should be rejected")
	}
	if !l.Allow("bob") {
		t.Fatal("other keys have their own bucket")
	}
}

func TestAllowRefills(t *testing.T) {
	t.Parallel()
	l := New(logger.Discard(), 1, 1)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("k") {
		t.Fatal("first request allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request rejected")
	}
	now = now.Add(time.Second)
	if !l.Allow("k") {
		t.Fatal("token should refill after one second")
	}
}

func TestZeroRateDisables(t *testing.T) {
	t.Parallel()
	l := New(logger.Discard(), 0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatal("zero rate should never reject")
		}
	}
	var nilLimiter *Limiter
	if !nilLimiter.Allow("k") {
		t.Fatal("nil limiter should allow")
	}
}

func TestCleanupDropsIdleKeys(t *testing.T) {
	t.Parallel()
	l := New(logger.Discard(), 5, 5)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(time.Hour)
	l.Allow("fresh")

	if removed := l.Cleanup(30 * time.Minute); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", l.Len())
	}
}

func TestStartCleanupRejectsBadSpec(t *testing.T) {
	t.Parallel()
	l := New(logger.Discard(), 1, 1)
	if err := l.StartCleanup("not a spec", time.Minute); err == nil {
		t.Fatal("expected parse error")
	}
	if err := l.StartCleanup("", time.Minute); err != nil {
		t.Fatalf("default spec: %v", err)
	}
	l.Stop()
}
