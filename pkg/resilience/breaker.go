// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/jllopis/ethos/pkg/errors"
)

// CircuitBreakerState is the breaker's position in its lifecycle.
type CircuitBreakerState string

const (
	// StateClosed lets calls through.
	StateClosed CircuitBreakerState = "closed"

	// StateOpen rejects calls until the cooldown passes.
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen lets probe calls decide whether the backend is back.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig configures a breaker.
type CircuitBreakerConfig struct {
	// Name labels the guarded backend in errors and logs.
	Name string

	// FailureThreshold is the consecutive failure count that opens the
	// circuit (default 5).
	FailureThreshold int

	// SuccessThreshold is the consecutive success count in half-open
	// that closes it again (default 2).
	SuccessThreshold int

	// Timeout is how long an open circuit rejects calls before probing
	// the backend again (default 30s).
	Timeout time.Duration
}

// CircuitBreaker fails fast while a backend is down so callers do not
// spend their retry budget against it. Enough consecutive failures
// open the circuit; after the cooldown, half-open probes decide
// whether it closes.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu        sync.Mutex
	state     CircuitBreakerState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker builds a closed breaker, filling config defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "backend"
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Call runs fn when the circuit allows it. While open it returns an
// INDEX_ERROR marked recoverable, so retry policies treat a tripped
// breaker like any other transient backend failure. The lock is not
// held during fn; concurrent calls proceed in parallel.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return errors.New(errors.CodeContextLost, "context done before call", err).
			WithContext("breaker", cb.cfg.Name)
	}
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err == nil)
	return err
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != StateOpen {
		return nil
	}
	if time.Since(cb.openedAt) < cb.cfg.Timeout {
		return errors.New(errors.CodeIndexError, "circuit open, backend cooling down", nil).
			WithContext("breaker", cb.cfg.Name).
			WithRecoverable(true)
	}
	cb.state = StateHalfOpen
	cb.failures = 0
	cb.successes = 0
	return nil
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if ok {
		switch cb.state {
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				cb.state = StateClosed
				cb.failures = 0
				cb.successes = 0
			}
		case StateClosed:
			cb.failures = 0
		}
		return
	}
	cb.failures++
	// Any half-open failure reopens; closed needs the full threshold.
	if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.state = StateOpen
		cb.openedAt = time.Now()
		cb.failures = 0
		cb.successes = 0
	}
}
