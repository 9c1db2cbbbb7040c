// Package ratelimit throttles command invocations per initiator.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// DefaultCleanupSpec runs stale-limiter cleanup every ten minutes.
const DefaultCleanupSpec = "@every 10m"

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter provides per-key rate limiting. A zero rate disables limiting.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    rate.Limit
	burst   int
	now     func() time.Time

	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a limiter allowing requestsPerSecond with the given burst per key.
func New(log *slog.Logger, requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		entries: make(map[string]*entry),
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
		now:     time.Now,
		logger:  log.With(slog.String("component", "ratelimit")),
	}
}

// Allow reports whether a request for key may proceed.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.rate <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops limiters not used within maxAge and returns how many were removed.
func (l *Limiter) Cleanup(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxAge)
	removed := 0
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartCleanup schedules Cleanup(maxAge) on the given cron spec.
func (l *Limiter) StartCleanup(spec string, maxAge time.Duration) error {
	if spec == "" {
		spec = DefaultCleanupSpec
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := l.Cleanup(maxAge); n > 0 {
			l.logger.Debug("dropped idle limiters", slog.Int("count", n))
		}
	}); err != nil {
		return err
	}
	l.cron = c
	c.Start()
	return nil
}

// Stop halts the cleanup schedule, if any.
func (l *Limiter) Stop() {
	if l.cron != nil {
		<-l.cron.Stop().Done()
	}
}
