// SPDX-License-Identifier: Apache-2.0

// Package health aggregates component health checks for the status
// command and the /healthz endpoint.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status represents the health state of a component.
type Status string

const (
	StatusHealthy   Status = "HEALTHY"
	StatusDegraded  Status = "DEGRADED"
	StatusUnhealthy Status = "UNHEALTHY"
)

// Result is the outcome of one component check.
type Result struct {
	Component string    `json:"component"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// Checker checks one component.
type Checker interface {
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) Result

func (f CheckerFunc) Check(ctx context.Context) Result { return f(ctx) }

// Provider runs registered checkers and reports an aggregate status.
type Provider struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewProvider creates an empty provider.
func NewProvider() *Provider {
	return &Provider{checkers: make(map[string]Checker)}
}

// Register adds a checker under a component name.
func (p *Provider) Register(name string, checker Checker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkers[name] = checker
}

// CheckAll runs every checker and returns the results sorted by
// component name plus the worst observed status.
func (p *Provider) CheckAll(ctx context.Context) ([]Result, Status) {
	p.mu.RLock()
	names := make([]string, 0, len(p.checkers))
	for name := range p.checkers {
		names = append(names, name)
	}
	p.mu.RUnlock()
	sort.Strings(names)

	overall := StatusHealthy
	results := make([]Result, 0, len(names))
	for _, name := range names {
		p.mu.RLock()
		checker := p.checkers[name]
		p.mu.RUnlock()

		result := checker.Check(ctx)
		result.Component = name
		if result.LastCheck.IsZero() {
			result.LastCheck = time.Now().UTC()
		}
		results = append(results, result)

		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}
	return results, overall
}
