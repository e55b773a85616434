package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is an in-process token bucket per key. It is the fallback when
// no Redis is configured and only protects a single instance.
type LocalLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	byKey map[string]*entry
	hits  uint64
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter allows a burst of limit attempts per key that refills over window.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	l := &LocalLimiter{
		burst:   limit,
		idleTTL: 10 * window,
		now:     time.Now,
		byKey:   make(map[string]*entry),
	}
	if limit > 0 {
		l.limit = rate.Every(window / time.Duration(limit))
	}
	return l
}

// WithClock replaces the time source.
func (l *LocalLimiter) WithClock(now func() time.Time) *LocalLimiter {
	l.now = now
	return l
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	key = strings.TrimSpace(key)
	if l.burst <= 0 || key == "" {
		return Decision{Allowed: true}, nil
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now

	l.hits++
	if l.hits%512 == 0 {
		l.evict(now)
	}

	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

func (l *LocalLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}
