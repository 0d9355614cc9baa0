// Package delegation analyzes the corpus delegation graph: cycles,
// unreachable personas, missing targets. Analysis is read-only; the
// rules in persona documents are descriptive data, never executed.
package delegation

import (
	"sort"

	"github.com/jllopis/ethos/pkg/registry"
)

// Graph is the delegation graph of a registry snapshot.
type Graph struct {
	Nodes []string        `json:"nodes" yaml:"nodes"`
	Edges []registry.Edge `json:"edges" yaml:"edges"`

	adjacency map[string][]string
	nodeSet   map[string]bool
}

// Analysis is the result of a full graph validation pass.
type Analysis struct {
	// MissingTargets lists edges whose target is not a known persona.
	MissingTargets []registry.Edge `json:"missing_targets,omitempty" yaml:"missing_targets,omitempty"`
	// SelfTargets lists personas that delegate to themselves.
	SelfTargets []string `json:"self_targets,omitempty" yaml:"self_targets,omitempty"`
	// Cycles lists delegation cycles as node sequences. The first node
	// is repeated at the end to close the loop.
	Cycles [][]string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	// Unreachable lists personas that neither delegate nor are a target.
	Unreachable []string `json:"unreachable,omitempty" yaml:"unreachable,omitempty"`
}

// Build constructs the delegation graph from a registry snapshot.
func Build(reg *registry.Registry) *Graph {
	g := &Graph{
		Nodes:     reg.IDs(),
		Edges:     reg.Edges(),
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
	for _, id := range g.Nodes {
		g.nodeSet[id] = true
	}
	for _, edge := range g.Edges {
		g.adjacency[edge.From] = append(g.adjacency[edge.From], edge.To)
	}
	return g
}

// Analyze runs every structural check over the graph.
func (g *Graph) Analyze() Analysis {
	var a Analysis

	seenSelf := make(map[string]bool)
	for _, edge := range g.Edges {
		if !g.nodeSet[edge.To] {
			a.MissingTargets = append(a.MissingTargets, edge)
		}
		if edge.From == edge.To && !seenSelf[edge.From] {
			seenSelf[edge.From] = true
			a.SelfTargets = append(a.SelfTargets, edge.From)
		}
	}

	a.Cycles = g.findCycles()
	a.Unreachable = g.findUnreachable()
	return a
}

// findCycles runs a DFS with three-color marking and records one cycle
// per back edge found.
func (g *Graph) findCycles() [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Nodes))
	var cycles [][]string
	var stack []string

	var visit func(node string)
	visit = func(node string) {
		color[node] = gray
		stack = append(stack, node)
		for _, next := range g.adjacency[node] {
			if !g.nodeSet[next] {
				continue
			}
			switch color[next] {
			case white:
				visit(next)
			case gray:
				// Back edge: the cycle is the stack suffix from next.
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycle := append([]string{}, stack[i:]...)
						cycle = append(cycle, next)
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
	}

	for _, node := range g.Nodes {
		if color[node] == white {
			visit(node)
		}
	}
	return cycles
}

// findUnreachable returns personas with no delegation edges at all,
// incoming or outgoing. They are standalone entry points only if
// something outside the corpus invokes them directly.
func (g *Graph) findUnreachable() []string {
	connected := make(map[string]bool)
	for _, edge := range g.Edges {
		connected[edge.From] = true
		connected[edge.To] = true
	}
	var out []string
	for _, node := range g.Nodes {
		if !connected[node] {
			out = append(out, node)
		}
	}
	sort.Strings(out)
	return out
}

// Targets returns the delegation targets of a persona in rule order.
func (g *Graph) Targets(id string) []string {
	out := make([]string, len(g.adjacency[id]))
	copy(out, g.adjacency[id])
	return out
}
