package session

import (
	"sync"
	"time"
)

// tokenBucket is a per-connection message-rate limiter, refilled
// continuously rather than in fixed windows. Grounded in
// N0-C0M-Serenada's SimpleTokenBucket, adapted from per-IP to
// per-connection keying.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// newTokenBucket builds a bucket that allows ratePerMinute messages per
// minute, with a burst capacity equal to that same per-minute budget.
func newTokenBucket(ratePerMinute int) *tokenBucket {
	rate := float64(ratePerMinute) / 60.0
	return &tokenBucket{
		tokens:     float64(ratePerMinute),
		capacity:   float64(ratePerMinute),
		refillRate: rate,
		last:       time.Now(),
	}
}

// Allow reports whether a message may proceed right now, consuming one
// token if so.
func (b *tokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now

	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
