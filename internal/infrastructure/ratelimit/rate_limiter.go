package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Actions limited per user.
const (
	ActionSendMessage        = "send_message"
	ActionTyping             = "typing"
	ActionCreateConversation = "create_conversation"
	ActionHTTP               = "http"
)

// Policy is a bucket size and the interval at which one token comes back.
type Policy struct {
	Burst int
	Every time.Duration
}

// PerMinute returns a policy allowing n events per minute with burst n.
func PerMinute(n int) Policy {
	return per(n, time.Minute)
}

// PerHour returns a policy allowing n events per hour with burst n.
func PerHour(n int) Policy {
	return per(n, time.Hour)
}

func per(n int, window time.Duration) Policy {
	if n <= 0 {
		n = 1
	}
	return Policy{Burst: n, Every: window / time.Duration(n)}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	fallback Policy
	buckets  map[string]*entry
	now      func() time.Time
}

func NewRateLimiter(policies map[string]Policy) *RateLimiter {
	return &RateLimiter{
		policies: policies,
		fallback: PerMinute(20),
		buckets:  make(map[string]*entry),
		now:      time.Now,
	}
}

// Allow consumes a token for key's action. When no token is available it
// reports how long until one is.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	id := key + ":" + action
	e, ok := rl.buckets[id]
	if !ok {
		p, ok := rl.policies[action]
		if !ok {
			p = rl.fallback
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(p.Every), p.Burst)}
		rl.buckets[id] = e
	}
	e.lastSeen = now
	rl.mu.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup drops buckets idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	for id, e := range rl.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(rl.buckets, id)
		}
	}
}

// StartCleanupRoutine runs Cleanup every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			}
		}
	}()
}
