package ratelimiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the limiter sleeps, making pacing math exact.
type fakeClock struct {
	mu    sync.Mutex
	t     time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	c.slept += d
	return nil
}

func newTestLimiter(clock *fakeClock, configs map[string]BucketConfig, opts Options) *Limiter {
	l := New(configs, opts)
	l.now = clock.now
	l.sleep = clock.sleep
	for _, b := range l.buckets {
		b.last = clock.now()
	}
	return l
}

func TestAcquire_BurstWithinCapacity(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{
		"linkedin": {Capacity: 3, Window: time.Minute},
	}, Options{})

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background(), "linkedin"))
	}
	assert.Zero(t, clock.slept, "burst within capacity should not wait")
}

func TestAcquire_PacesBeyondCapacity(t *testing.T) {
	// Scenario: 2 req / 60s, 5 acquires. Enforcement alone must cost at
	// least 60s * (5-2)/2 = 90s of waiting.
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{
		"linkedin": {Capacity: 2, Window: time.Minute},
	}, Options{})

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(context.Background(), "linkedin"))
	}
	assert.GreaterOrEqual(t, clock.slept, 90*time.Second)
	assert.Less(t, clock.slept, 91*time.Second)
}

func TestAcquire_GlobalBucketAlsoGates(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{
		"linkedin":   {Capacity: 100, Window: time.Minute},
		GlobalSource: {Capacity: 1, Window: time.Minute},
	}, Options{})

	require.NoError(t, l.Acquire(context.Background(), "linkedin"))
	require.NoError(t, l.Acquire(context.Background(), "linkedin"))
	assert.GreaterOrEqual(t, clock.slept, 59*time.Second, "second call must wait on global refill")
}

func TestAcquire_UnconfiguredSourceIsUnpaced(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{}, Options{})
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Acquire(context.Background(), "website"))
	}
	assert.Zero(t, clock.slept)
}

func TestReportThrottle_RetryAfterHonoredExactly(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{
		"github": {Capacity: 10, Window: time.Minute},
	}, Options{})

	l.ReportThrottle("github", 2*time.Second)
	assert.True(t, l.Throttled("github"))

	require.NoError(t, l.Acquire(context.Background(), "github"))
	assert.GreaterOrEqual(t, clock.slept, 2*time.Second)
	assert.False(t, l.Throttled("github"))
}

func TestReportThrottle_StrategyGrowth(t *testing.T) {
	cases := []struct {
		strategy Strategy
		// expected multiplier of base delay per consecutive failure 1..4,
		// pre-jitter
		factors []float64
	}{
		{StrategyFixed, []float64{1, 1, 1, 1}},
		{StrategyLinear, []float64{1, 2, 3, 4}},
		{StrategyExponential, []float64{1, 2, 4, 8}},
		{StrategyFibonacci, []float64{1, 2, 3, 5}},
	}
	base := time.Second
	for _, tc := range cases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			clock := newFakeClock()
			l := newTestLimiter(clock, map[string]BucketConfig{
				"x": {Capacity: 1000, Window: time.Minute},
			}, Options{Strategy: tc.strategy, BaseDelay: base, MaxDelay: time.Hour})
			for i, f := range tc.factors {
				l.buckets["x"].failures = i
				d := l.backoffDelay(i + 1)
				lo := time.Duration(float64(base) * f * 0.85)
				hi := time.Duration(float64(base) * f * 1.15)
				assert.GreaterOrEqual(t, d, lo, "failure %d", i+1)
				assert.LessOrEqual(t, d, hi, "failure %d", i+1)
			}
		})
	}
}

func TestReportThrottle_ClampedToMaxDelay(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{
		"x": {Capacity: 1000, Window: time.Minute},
	}, Options{Strategy: StrategyExponential, BaseDelay: time.Second, MaxDelay: 5 * time.Second})
	d := l.backoffDelay(30)
	assert.LessOrEqual(t, d, 5*time.Second)
}

func TestFailureCountDecrementsOnSuccess(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{
		"x": {Capacity: 10, Window: time.Minute},
	}, Options{BaseDelay: time.Millisecond})

	l.ReportThrottle("x", time.Millisecond)
	l.ReportThrottle("x", time.Millisecond)
	require.Equal(t, 2, l.buckets["x"].failures)

	require.NoError(t, l.Acquire(context.Background(), "x"))
	assert.Equal(t, 1, l.buckets["x"].failures)
	require.NoError(t, l.Acquire(context.Background(), "x"))
	assert.Equal(t, 0, l.buckets["x"].failures)
}

func TestAcquire_CancelledContext(t *testing.T) {
	l := New(map[string]BucketConfig{
		"x": {Capacity: 1, Window: time.Hour},
	}, Options{})
	// drain the only token
	require.NoError(t, l.Acquire(context.Background(), "x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFibonacci(t *testing.T) {
	t.Parallel()
	got := make([]int, 0, 6)
	for n := 1; n <= 6; n++ {
		got = append(got, fibonacci(n))
	}
	assert.Equal(t, []int{1, 2, 3, 5, 8, 13}, got)
}

func TestSetBucketConfig_Replaces(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, map[string]BucketConfig{}, Options{})
	l.SetBucketConfig("new", BucketConfig{Capacity: 1, Window: time.Minute})
	l.buckets["new"].last = clock.now()

	require.NoError(t, l.Acquire(context.Background(), "new"))
	require.NoError(t, l.Acquire(context.Background(), "new"))
	assert.GreaterOrEqual(t, clock.slept, 59*time.Second)
}
