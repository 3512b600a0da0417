// Package ratelimiter implements token-bucket pacing for outbound calls,
// with per-source buckets, a shared global bucket, and throttle backoff.
package ratelimiter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/observability"
)

// Strategy selects how backoff grows with consecutive throttle reports.
type Strategy string

const (
	StrategyFixed       Strategy = "fixed"
	StrategyLinear      Strategy = "linear"
	StrategyExponential Strategy = "exponential"
	StrategyFibonacci   Strategy = "fibonacci"
)

// ParseStrategy maps a config string to a Strategy, defaulting to exponential.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFixed, StrategyLinear, StrategyExponential, StrategyFibonacci:
		return Strategy(s)
	default:
		return StrategyExponential
	}
}

// BucketConfig describes one bucket: Capacity requests per Window.
type BucketConfig struct {
	Capacity int
	Window   time.Duration
}

// Options configures backoff behavior shared by all buckets.
type Options struct {
	Strategy  Strategy
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// GlobalSource is the bucket id used for the process-wide bucket.
const GlobalSource = "global"

type bucket struct {
	// acqMu serializes acquirers so releases stay FIFO per source.
	acqMu sync.Mutex

	mu             sync.Mutex
	tokens         float64
	last           time.Time
	capacity       float64
	refillPerSec   float64
	suspendedUntil time.Time
	failures       int
}

// Limiter is safe for concurrent use and shared process-wide.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	opts    Options

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds a Limiter from per-source bucket configs. A config under
// GlobalSource gates all sources collectively; sources without a config are
// not paced.
func New(configs map[string]BucketConfig, opts Options) *Limiter {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 60 * time.Second
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyExponential
	}
	l := &Limiter{
		buckets: make(map[string]*bucket, len(configs)),
		opts:    opts,
		now:     time.Now,
		sleep:   sleepCtx,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // jitter only
	}
	for source, cfg := range configs {
		l.setBucket(source, cfg)
	}
	return l
}

// SetBucketConfig adds or replaces a bucket at runtime.
func (l *Limiter) SetBucketConfig(source string, cfg BucketConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setBucket(source, cfg)
}

func (l *Limiter) setBucket(source string, cfg BucketConfig) {
	if cfg.Capacity <= 0 || cfg.Window <= 0 {
		delete(l.buckets, source)
		return
	}
	l.buckets[source] = &bucket{
		tokens:       float64(cfg.Capacity),
		last:         l.now(),
		capacity:     float64(cfg.Capacity),
		refillPerSec: float64(cfg.Capacity) / cfg.Window.Seconds(),
	}
}

// Acquire blocks until one token is available for source and one for the
// global bucket, or until ctx is done. It never fails for capacity reasons.
func (l *Limiter) Acquire(ctx context.Context, source string) error {
	start := l.now()
	if b := l.bucket(source); b != nil {
		if err := l.acquireBucket(ctx, b); err != nil {
			return fmt.Errorf("op=ratelimiter.Acquire source=%s: %w", source, err)
		}
	}
	if source != GlobalSource {
		if b := l.bucket(GlobalSource); b != nil {
			if err := l.acquireBucket(ctx, b); err != nil {
				return fmt.Errorf("op=ratelimiter.Acquire source=global: %w", err)
			}
		}
	}
	observability.RateLimitWaitSeconds.WithLabelValues(source).
		Observe(l.now().Sub(start).Seconds())
	return nil
}

// ReportThrottle suspends acquisitions against source. With retryAfter > 0
// the suspension lasts exactly that long; otherwise the configured strategy
// computes the delay from the consecutive failure count, jittered and clamped.
func (l *Limiter) ReportThrottle(source string, retryAfter time.Duration) {
	b := l.bucket(source)
	if b == nil {
		return
	}
	observability.ThrottleEventsTotal.WithLabelValues(source).Inc()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	delay := retryAfter
	if delay <= 0 {
		delay = l.backoffDelay(b.failures)
	}
	until := l.now().Add(delay)
	if until.After(b.suspendedUntil) {
		b.suspendedUntil = until
	}
}

// Throttled reports whether source is currently suspended.
func (l *Limiter) Throttled(source string) bool {
	b := l.bucket(source)
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return l.now().Before(b.suspendedUntil)
}

func (l *Limiter) bucket(source string) *bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buckets[source]
}

func (l *Limiter) acquireBucket(ctx context.Context, b *bucket) error {
	b.acqMu.Lock()
	defer b.acqMu.Unlock()
	for {
		b.mu.Lock()
		now := l.now()
		if now.Before(b.suspendedUntil) {
			d := b.suspendedUntil.Sub(now)
			b.mu.Unlock()
			if err := l.sleep(ctx, d); err != nil {
				return err
			}
			continue
		}
		elapsed := now.Sub(b.last).Seconds()
		if elapsed > 0 {
			b.tokens = min(b.capacity, b.tokens+elapsed*b.refillPerSec)
			b.last = now
		}
		if b.tokens >= 1 {
			b.tokens--
			if b.failures > 0 {
				b.failures--
			}
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / b.refillPerSec * float64(time.Second))
		b.mu.Unlock()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (l *Limiter) backoffDelay(failures int) time.Duration {
	base := l.opts.BaseDelay
	var d time.Duration
	switch l.opts.Strategy {
	case StrategyFixed:
		d = base
	case StrategyLinear:
		d = time.Duration(failures) * base
	case StrategyExponential:
		d = base << uint(failures-1) //nolint:gosec // failures >= 1 here
	case StrategyFibonacci:
		d = time.Duration(fibonacci(failures)) * base
	default:
		d = base
	}
	// uniform jitter within +-15%
	l.rngMu.Lock()
	factor := 0.85 + l.rng.Float64()*0.30
	l.rngMu.Unlock()
	d = time.Duration(float64(d) * factor)
	if d > l.opts.MaxDelay {
		d = l.opts.MaxDelay
	}
	return d
}

// fibonacci returns the backoff multiplier sequence 1, 2, 3, 5, 8, ...
func fibonacci(n int) int {
	if n <= 1 {
		return 1
	}
	a, b := 1, 2
	for i := 3; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
