package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a keyed token bucket. Provider clients use it to pace
// outbound calls (Alpha Vantage allows 5/min on the free tier) and the
// API uses it to throttle clients by IP.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	l.mu.Lock()
	ok := l.take(key, capacity, refillPerSec)
	l.mu.Unlock()
	return ok
}

// Wait blocks until a token is available for key or ctx is done. Meant for
// collectors that pace themselves instead of dropping a provider call.
func (l *Limiter) Wait(ctx context.Context, key string, capacity, refillPerSec float64) error {
	for {
		l.mu.Lock()
		if l.take(key, capacity, refillPerSec) {
			l.mu.Unlock()
			return nil
		}
		wait := l.untilNextToken(key)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes one token if available. Caller holds the lock.
func (l *Limiter) take(key string, capacity, refillPerSec float64) bool {
	now := time.Now()
	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// untilNextToken estimates how long until one token refills. Caller holds
// the lock and the bucket exists.
func (l *Limiter) untilNextToken(key string) time.Duration {
	b := l.m[key]
	if b.refillRate <= 0 {
		return time.Second
	}
	missing := 1 - b.tokens
	if missing <= 0 {
		return time.Millisecond
	}
	return time.Duration(missing / b.refillRate * float64(time.Second))
}
