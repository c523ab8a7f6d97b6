// Package ratelimit is the engine-side throttle consulted immediately
// before every LLM invocation. Unlike an HTTP middleware it blocks the
// caller until a slot is available instead of rejecting the request.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultRequestsPerMinute = 60

type bucket struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	lastUsed   time.Time
}

type Limiter struct {
	mu            sync.RWMutex
	buckets       map[string]*bucket
	logger        *zap.Logger
	cleanupTicker *time.Ticker
	done          chan struct{}
}

func New(logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Limiter{
		buckets:       make(map[string]*bucket),
		logger:        logger,
		cleanupTicker: time.NewTicker(5 * time.Minute),
		done:          make(chan struct{}),
	}

	go l.cleanup()

	return l
}

// SetLimit configures the per-minute budget for a service key. Existing
// tokens are preserved up to the new ceiling.
func (l *Limiter) SetLimit(serviceKey string, requestsPerMinute int) {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}

	b := l.bucketFor(serviceKey)

	b.mu.Lock()
	b.maxTokens = requestsPerMinute
	b.refillRate = time.Minute / time.Duration(requestsPerMinute)
	if b.tokens > requestsPerMinute {
		b.tokens = requestsPerMinute
	}
	b.mu.Unlock()

	l.logger.Info("Rate limit configured",
		zap.String("service", serviceKey),
		zap.Int("requests_per_minute", requestsPerMinute),
	)
}

// WaitIfNeeded blocks until the service key has a token available or the
// context is cancelled. This is the sole suspension point in the engine.
func (l *Limiter) WaitIfNeeded(ctx context.Context, serviceKey string) error {
	b := l.bucketFor(serviceKey)

	for {
		wait, ok := b.take()
		if ok {
			return nil
		}

		l.logger.Debug("Rate limit wait",
			zap.String("service", serviceKey),
			zap.Duration("wait", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) bucketFor(serviceKey string) *bucket {
	l.mu.RLock()
	b, exists := l.buckets[serviceKey]
	l.mu.RUnlock()

	if exists {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if b, exists = l.buckets[serviceKey]; exists {
		return b
	}

	b = &bucket{
		tokens:     defaultRequestsPerMinute,
		maxTokens:  defaultRequestsPerMinute,
		refillRate: time.Minute / defaultRequestsPerMinute,
		lastRefill: time.Now(),
		lastUsed:   time.Now(),
	}
	l.buckets[serviceKey] = b
	return b
}

// take consumes a token when available; otherwise it reports how long
// until the next token lands.
func (b *bucket) take() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.lastUsed = now

	elapsed := now.Sub(b.lastRefill)
	if add := int(elapsed / b.refillRate); add > 0 {
		b.tokens += add
		if b.tokens > b.maxTokens {
			b.tokens = b.maxTokens
		}
		b.lastRefill = b.lastRefill.Add(time.Duration(add) * b.refillRate)
	}

	if b.tokens > 0 {
		b.tokens--
		return 0, true
	}

	wait := b.refillRate - now.Sub(b.lastRefill)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanupTicker.C:
			l.mu.Lock()
			now := time.Now()
			for key, b := range l.buckets {
				b.mu.Lock()
				idle := now.Sub(b.lastUsed)
				b.mu.Unlock()
				if idle > 10*time.Minute {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *Limiter) Stop() {
	l.cleanupTicker.Stop()
	close(l.done)
}
