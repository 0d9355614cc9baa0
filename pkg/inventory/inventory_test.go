package inventory

import (
	"context"
	"errors"
	"testing"
)

func TestKnown(t *testing.T) {
	inv := New(WithStaticTools([]string{"Read", "Grep", "Bash", "mcp__qdrant__*"}))

	tests := []struct {
		tool string
		want bool
	}{
		{"Read", true},
		{"Grep", true},
		{"Bash(git:*)", true}, // bare Bash covers qualified entries
		{"mcp__qdrant__search", true},
		{"Imaginary", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := inv.Known(tc.tool); got != tc.want {
			t.Errorf("Known(%q) = %v, want %v", tc.tool, got, tc.want)
		}
	}
}

func TestKnownGlobEntry(t *testing.T) {
	inv := New(WithStaticTools([]string{"Write"}))
	// Persona entry is itself a pattern covering an inventory name.
	if !inv.Known("Wri*") {
		t.Error("pattern entry should match inventory name")
	}
}

type staticCollector []string

func (s staticCollector) CollectTools(context.Context) ([]string, error) {
	return s, nil
}

type failingCollector struct{}

func (failingCollector) CollectTools(context.Context) ([]string, error) {
	return nil, errors.New("server down")
}

func TestCollect(t *testing.T) {
	inv := New()
	err := inv.Collect(context.Background(),
		staticCollector{"mcp__fs__read", "mcp__fs__write"},
		failingCollector{},
		staticCollector{"mcp__web__fetch"},
	)
	if err == nil {
		t.Error("expected error from failing collector")
	}
	if inv.Len() != 3 {
		t.Errorf("expected 3 tools despite failure, got %d: %v", inv.Len(), inv.Names())
	}
	if !inv.Known("mcp__web__fetch") {
		t.Error("collector names not merged")
	}
}

func TestNamesSorted(t *testing.T) {
	inv := New(WithStaticTools([]string{"b-tool", "a-tool"}))
	names := inv.Names()
	if len(names) != 2 || names[0] != "a-tool" {
		t.Errorf("names: %v", names)
	}
}
