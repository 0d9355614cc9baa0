// SPDX-License-Identifier: Apache-2.0

// Package resilience guards the index backends. Embedder and vector
// store calls run under retry with exponential backoff, a circuit
// breaker fails fast while a backend is down, and WithFallback hands
// failed calls to a degraded path. Recoverability keys off ethos error
// codes so a PARSE_ERROR never burns a retry budget meant for a
// flapping store.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/jllopis/ethos/pkg/errors"
)

// Recoverable reports whether err is worth retrying. An EthosError
// flagged recoverable always is. Otherwise the code decides: backend
// codes count as transient, input and document codes as permanent.
// Plain errors count as transient since the backends wrap everything
// they can classify.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	ee, ok := err.(*errors.EthosError)
	if !ok {
		return true
	}
	if ee.Recoverable {
		return true
	}
	switch ee.Code {
	case errors.CodeStoreError, errors.CodeIndexError, errors.CodeEmbedderError, errors.CodeTimeout:
		return true
	}
	return false
}

// RetryConfig controls retry with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total attempt budget, first call included.
	MaxAttempts int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the grown delay. Zero means uncapped.
	MaxDelay time.Duration

	// Multiplier scales the delay between attempts (default 2).
	Multiplier float64

	// Jitter spreads each delay by up to ±Jitter fraction so concurrent
	// syncs do not probe a recovering backend in lockstep.
	Jitter float64

	// IsRecoverable overrides the code-based Recoverable classifier.
	IsRecoverable func(error) bool
}

// DefaultRetryConfig is tuned for the index backends: three attempts
// within roughly half a second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       0.1,
	}
}

// Do runs fn until it succeeds, the attempt budget runs out, or an
// unrecoverable error surfaces. Cancellation during backoff returns
// CONTEXT_LOST; the last attempt's error comes back otherwise.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	attempts := rc.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	recoverable := rc.IsRecoverable
	if recoverable == nil {
		recoverable = Recoverable
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeContextLost, "canceled while waiting to retry", ctx.Err()).
					WithContext("attempt", attempt).
					WithContext("max_attempts", attempts)
			case <-time.After(rc.backoff(attempt)):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if !recoverable(err) {
			return err
		}
	}
	return err
}

// backoff returns the delay before retry number attempt (1-based).
func (rc RetryConfig) backoff(attempt int) time.Duration {
	multiplier := rc.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	delay := float64(rc.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if rc.MaxDelay > 0 && delay > float64(rc.MaxDelay) {
		delay = float64(rc.MaxDelay)
	}
	if rc.Jitter > 0 {
		delay += delay * rc.Jitter * (2*rand.Float64() - 1)
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}
