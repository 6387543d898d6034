package service

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RetryPolicy bounds the conflict retry loop of the write path.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration
}

// DefaultRetryPolicy allows one initial attempt plus three retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		MaxJitter:   100 * time.Millisecond,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxJitter < 0 {
		p.MaxJitter = 0
	}
	return p
}

// Backoff returns min(base*2^retry + jitter, max) for the zero-based retry index.
func (p RetryPolicy) Backoff(retry int, jitter time.Duration) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < retry && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	delay += jitter
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// jitterSource hands out bounded random addends. Concurrent writers share one
// source, so access is serialised.
type jitterSource struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func newJitterSource(seed int64) *jitterSource {
	return &jitterSource{rand: rand.New(rand.NewSource(seed))}
}

func (j *jitterSource) next(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rand.Int63n(int64(limit)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
