// Package inventory tracks the set of tool names known to the host
// environment so lint can flag personas asking for tools that do not
// exist. Names come from static configuration plus live MCP servers.
package inventory

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// Collector yields tool names from a live source, typically an MCP
// server session.
type Collector interface {
	CollectTools(ctx context.Context) ([]string, error)
}

// Inventory is the merged tool-name set.
type Inventory struct {
	mu    sync.RWMutex
	names map[string]bool
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithStaticTools seeds the inventory from configuration.
func WithStaticTools(tools []string) Option {
	return func(inv *Inventory) {
		for _, tool := range tools {
			tool = strings.TrimSpace(tool)
			if tool != "" {
				inv.names[tool] = true
			}
		}
	}
}

// New creates an inventory.
func New(opts ...Option) *Inventory {
	inv := &Inventory{names: make(map[string]bool)}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Collect merges tool names from the given collectors. Collector
// failures are returned but do not discard names gathered so far.
func (inv *Inventory) Collect(ctx context.Context, collectors ...Collector) error {
	var firstErr error
	for _, collector := range collectors {
		names, err := collector.CollectTools(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		inv.Add(names...)
	}
	return firstErr
}

// Add registers tool names.
func (inv *Inventory) Add(tools ...string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, tool := range tools {
		tool = strings.TrimSpace(tool)
		if tool != "" {
			inv.names[tool] = true
		}
	}
}

// Known reports whether a persona tool entry matches the inventory.
// Entries may carry glob qualifiers, e.g. Bash(git:*) is satisfied by
// an inventory entry Bash or Bash(*). Matching also runs the other
// way: inventory pattern Bash(*) satisfies entry Bash(git:*).
func (inv *Inventory) Known(tool string) bool {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return false
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	if inv.names[tool] {
		return true
	}
	// A qualified entry is covered by its bare tool name.
	if base := baseName(tool); base != tool && inv.names[base] {
		return true
	}
	for name := range inv.names {
		if ok, err := path.Match(name, tool); err == nil && ok {
			return true
		}
		if ok, err := path.Match(tool, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Names returns the sorted tool names.
func (inv *Inventory) Names() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]string, 0, len(inv.names))
	for name := range inv.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known tool names.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.names)
}

// baseName strips a parenthesized qualifier: Bash(git:*) -> Bash.
func baseName(tool string) string {
	if idx := strings.IndexByte(tool, '('); idx > 0 && strings.HasSuffix(tool, ")") {
		return tool[:idx]
	}
	return tool
}
