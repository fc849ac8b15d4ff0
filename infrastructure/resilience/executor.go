// Package resilience wraps OCR engine calls with fortify's resilience
// patterns. The admission layer never blocks, so all protective machinery
// lives here, around the one genuinely slow and failure-prone call.
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/textlift/textlift/domain/ocr"
)

// Executor runs OCR recognitions with bulkhead, timeout, circuit breaker and
// retry applied, in that order.
type Executor struct {
	bulkhead bulkhead.Bulkhead[ocr.Result]
	breaker  circuitbreaker.CircuitBreaker[ocr.Result]
	retry    retry.Retry[ocr.Result]
	timeout  time.Duration
}

// Config configures the executor.
type Config struct {
	// MaxConcurrent limits in-flight recognitions.
	MaxConcurrent int

	// BreakerThreshold is the number of consecutive failures before the
	// circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum number of attempts per recognition.
	RetryMaxAttempts int

	// RetryInitialDelay is the delay before the first retry.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// Timeout bounds a single recognition including its retries.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:          10,
		BreakerThreshold:       5,
		BreakerTimeout:         30 * time.Second,
		RetryMaxAttempts:       2,
		RetryInitialDelay:      100 * time.Millisecond,
		RetryBackoffMultiplier: 2.0,
		Timeout:                15 * time.Second,
	}
}

// NewExecutor creates a resilient OCR executor.
func NewExecutor(config Config) *Executor {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Executor{
		bulkhead: bulkhead.New[ocr.Result](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[ocr.Result](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[ocr.Result](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		}),
		timeout: timeout,
	}
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultConfig())
}

// Recognize runs one recognition through the protective stack.
// Composition order: Bulkhead → Timeout → Circuit Breaker → Retry.
// While the circuit is open, failures surface as ocr.ErrEngineUnavailable so
// callers can distinguish a tripped engine from a bad input.
func (e *Executor) Recognize(ctx context.Context, eng ocr.Engine, in ocr.Input) (ocr.Result, error) {
	res, err := e.bulkhead.Execute(ctx, func(ctx context.Context) (ocr.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		return e.breaker.Execute(ctx, func(ctx context.Context) (ocr.Result, error) {
			return e.retry.Do(ctx, func(ctx context.Context) (ocr.Result, error) {
				return eng.Recognize(ctx, in)
			})
		})
	})
	if err != nil && e.breaker.State() == circuitbreaker.StateOpen {
		return res, fmt.Errorf("%w: %v", ocr.ErrEngineUnavailable, err)
	}
	return res, err
}

// BreakerState returns the current circuit breaker state.
func (e *Executor) BreakerState() circuitbreaker.State {
	return e.breaker.State()
}
