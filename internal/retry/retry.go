// Package retry provides bounded exponential-backoff retry and a circuit
// breaker for calls to the external text analyzer.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// ExhaustedError is raised after the final attempt fails. It wraps the last
// underlying failure so callers can still inspect the cause.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Executor retries a fallible operation with exponential backoff and jitter.
// The zero value is not usable; construct with NewExecutor.
type Executor struct {
	maxRetries      int
	baseDelay       time.Duration
	maxDelay        time.Duration
	exponentialBase float64
	jitter          bool
	retryable       func(error) bool
	logger          *zap.Logger

	// sleep waits without blocking other goroutines and honors cancellation.
	// Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option tweaks an Executor.
type Option func(*Executor)

// WithJitter toggles the uniform [0.5,1.0) delay factor.
func WithJitter(enabled bool) Option {
	return func(e *Executor) { e.jitter = enabled }
}

// WithExponentialBase overrides the backoff multiplier (default 2).
func WithExponentialBase(base float64) Option {
	return func(e *Executor) { e.exponentialBase = base }
}

// WithRetryable restricts which errors trigger a retry. Errors outside the
// set propagate immediately without further attempts.
func WithRetryable(fn func(error) bool) Option {
	return func(e *Executor) { e.retryable = fn }
}

func NewExecutor(maxRetries int, baseDelay, maxDelay time.Duration, logger *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		maxRetries:      maxRetries,
		baseDelay:       baseDelay,
		maxDelay:        maxDelay,
		exponentialBase: 2,
		jitter:          true,
		retryable:       func(error) bool { return true },
		logger:          logger,
		sleep:           sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs fn up to maxRetries+1 times. A nil return stops immediately;
// a non-retryable error propagates as-is; exhaustion yields *ExhaustedError.
func (e *Executor) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	var last error
	attempts := e.maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := e.sleep(ctx, e.delay(attempt)); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				e.logger.Info("operation succeeded after retries",
					zap.String("operation", name),
					zap.Int("retries", attempt))
			}
			return nil
		}
		if !e.retryable(err) {
			e.logger.Error("non-retryable failure",
				zap.String("operation", name),
				zap.Error(err))
			return err
		}

		last = err
		e.logger.Warn("attempt failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Error(err))
	}

	e.logger.Error("all attempts exhausted",
		zap.String("operation", name),
		zap.Int("attempts", attempts),
		zap.Error(last))
	return &ExhaustedError{Attempts: attempts, Last: last}
}

// delay computes the wait before retry number attempt (1-based), capped at
// maxDelay, optionally scaled into [0.5,1.0) of itself.
func (e *Executor) delay(attempt int) time.Duration {
	d := float64(e.baseDelay) * math.Pow(e.exponentialBase, float64(attempt-1))
	d = math.Min(d, float64(e.maxDelay))
	if e.jitter {
		d *= 0.5 + rand.Float64()*0.5
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
