package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExecutor(maxRetries int, opts ...Option) (*Executor, *[]time.Duration) {
	e := NewExecutor(maxRetries, 10*time.Millisecond, 100*time.Millisecond, zap.NewNop(), opts...)
	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return e, &slept
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	e, slept := newTestExecutor(3)

	calls := 0
	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	e, slept := newTestExecutor(3)

	calls := 0
	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)
}

func TestDoExhaustionWrapsLastError(t *testing.T) {
	e, _ := newTestExecutor(2)

	final := errors.New("still broken")
	calls := 0
	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return final
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, final)
}

func TestDoNonRetryablePropagates(t *testing.T) {
	fatal := errors.New("bad request")
	e, slept := newTestExecutor(3, WithRetryable(func(err error) bool {
		return !errors.Is(err, fatal)
	}))

	calls := 0
	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return fatal
	})

	require.ErrorIs(t, err, fatal)
	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestDoStopsOnCanceledContext(t *testing.T) {
	e, _ := newTestExecutor(5)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := e.Do(ctx, "op", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDelayGrowsExponentiallyAndCaps(t *testing.T) {
	e := NewExecutor(10, 10*time.Millisecond, 50*time.Millisecond, zap.NewNop(), WithJitter(false))

	assert.Equal(t, 10*time.Millisecond, e.delay(1))
	assert.Equal(t, 20*time.Millisecond, e.delay(2))
	assert.Equal(t, 40*time.Millisecond, e.delay(3))
	assert.Equal(t, 50*time.Millisecond, e.delay(4))
	assert.Equal(t, 50*time.Millisecond, e.delay(8))
}

func TestDelayJitterStaysInHalfToFullRange(t *testing.T) {
	e := NewExecutor(3, 100*time.Millisecond, time.Second, zap.NewNop())

	for i := 0; i < 50; i++ {
		d := e.delay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 100*time.Millisecond)
	}
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	}

	err := b.Do(func() error {
		t.Fatal("call must not run while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerHalfOpenProbeCloses(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	clock := time.Now()
	b.now = func() time.Time { return clock }

	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	clock = clock.Add(2 * time.Minute)
	require.NoError(t, b.Do(func() error { return nil }))

	// Closed again: calls flow freely.
	assert.NoError(t, b.Allow())
	b.Success()
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	clock := time.Now()
	b.now = func() time.Time { return clock }

	require.Error(t, b.Do(func() error { return errors.New("boom") }))

	clock = clock.Add(2 * time.Minute)
	require.Error(t, b.Do(func() error { return errors.New("still down") }))

	// Re-opened with a fresh timeout clock.
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
	clock = clock.Add(30 * time.Second)
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
	clock = clock.Add(31 * time.Second)
	assert.NoError(t, b.Allow())
}

func TestBreakerHalfOpenAdmitsSingleProbe(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	clock := time.Now()
	b.now = func() time.Time { return clock }

	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	clock = clock.Add(2 * time.Minute)

	require.NoError(t, b.Allow())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}
