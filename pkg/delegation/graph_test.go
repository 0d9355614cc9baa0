package delegation

import (
	"strings"
	"testing"

	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/registry"
)

func buildGraph(t *testing.T, personas ...persona.Persona) *Graph {
	t.Helper()
	reg, err := registry.New(personas)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return Build(reg)
}

func delegating(name string, targets ...string) persona.Persona {
	p := persona.Persona{Name: name, Description: "test persona"}
	for _, target := range targets {
		p.Delegations = append(p.Delegations, persona.DelegationRule{
			Trigger: "when needed", Target: target,
		})
	}
	return p
}

func TestAnalyzeMissingTarget(t *testing.T) {
	g := buildGraph(t, delegating("router", "ghost"))
	a := g.Analyze()
	if len(a.MissingTargets) != 1 || a.MissingTargets[0].To != "ghost" {
		t.Errorf("missing targets: %+v", a.MissingTargets)
	}
}

func TestAnalyzeSelfTarget(t *testing.T) {
	g := buildGraph(t, delegating("loner", "loner"))
	a := g.Analyze()
	if len(a.SelfTargets) != 1 || a.SelfTargets[0] != "loner" {
		t.Errorf("self targets: %v", a.SelfTargets)
	}
}

func TestAnalyzeCycle(t *testing.T) {
	g := buildGraph(t,
		delegating("a", "b"),
		delegating("b", "c"),
		delegating("c", "a"),
	)
	a := g.Analyze()
	if len(a.Cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d: %v", len(a.Cycles), a.Cycles)
	}
	cycle := a.Cycles[0]
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle should close on itself: %v", cycle)
	}
	if len(cycle) != 4 {
		t.Errorf("expected 3-node cycle, got %v", cycle)
	}
}

func TestAnalyzeNoCycleInDAG(t *testing.T) {
	g := buildGraph(t,
		delegating("root", "left", "right"),
		delegating("left", "leaf"),
		delegating("right", "leaf"),
		delegating("leaf"),
	)
	a := g.Analyze()
	if len(a.Cycles) != 0 {
		t.Errorf("DAG should have no cycles: %v", a.Cycles)
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	g := buildGraph(t,
		delegating("a", "b"),
		delegating("b"),
		delegating("island"),
	)
	a := g.Analyze()
	if len(a.Unreachable) != 1 || a.Unreachable[0] != "island" {
		t.Errorf("unreachable: %v", a.Unreachable)
	}
}

func TestExportFormats(t *testing.T) {
	g := buildGraph(t, delegating("code-reviewer", "performance-optimizer"),
		delegating("performance-optimizer"))

	mermaid, err := g.Export("mermaid")
	if err != nil {
		t.Fatalf("mermaid export: %v", err)
	}
	if !strings.HasPrefix(mermaid, "graph TD") {
		t.Errorf("mermaid header: %q", mermaid)
	}
	if !strings.Contains(mermaid, "code_reviewer -->") {
		t.Errorf("mermaid edge missing: %q", mermaid)
	}

	dot, err := g.Export("dot")
	if err != nil {
		t.Fatalf("dot export: %v", err)
	}
	if !strings.Contains(dot, `"code-reviewer" -> "performance-optimizer"`) {
		t.Errorf("dot edge missing: %q", dot)
	}

	jsonOut, err := g.Export("json")
	if err != nil {
		t.Fatalf("json export: %v", err)
	}
	if !strings.Contains(jsonOut, `"nodes"`) {
		t.Errorf("json missing nodes: %q", jsonOut)
	}

	yamlOut, err := g.Export("yaml")
	if err != nil {
		t.Fatalf("yaml export: %v", err)
	}
	if !strings.Contains(yamlOut, "edges:") {
		t.Errorf("yaml missing edges: %q", yamlOut)
	}

	if _, err := g.Export("svg"); err == nil {
		t.Error("expected error for unknown format")
	}
}
