package catalog

import (
	"context"
	"testing"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/registry"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func snapshot(t *testing.T, personas ...persona.Persona) *registry.Registry {
	t.Helper()
	reg, err := registry.New(personas)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func testPersona(name, fingerprint string, tools ...string) persona.Persona {
	return persona.Persona{
		Name:        name,
		Description: "description of " + name,
		Summary:     "summary of " + name,
		Tools:       tools,
		Fingerprint: fingerprint,
		SourceName:  "test",
		Path:        name + ".md",
	}
}

func TestSyncUpsertAndDelete(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	result, err := c.Sync(ctx, snapshot(t,
		testPersona("alpha", "f1", "Read"),
		testPersona("beta", "f2"),
	))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Upserted != 2 || result.Deleted != 0 || result.Unchanged != 0 {
		t.Errorf("first sync: %+v", result)
	}

	// Second sync with identical fingerprints touches nothing.
	result, err = c.Sync(ctx, snapshot(t,
		testPersona("alpha", "f1", "Read"),
		testPersona("beta", "f2"),
	))
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if result.Unchanged != 2 || result.Upserted != 0 {
		t.Errorf("unchanged sync: %+v", result)
	}

	// Changed fingerprint rewrites; vanished persona is deleted.
	result, err = c.Sync(ctx, snapshot(t, testPersona("alpha", "f1-changed", "Read")))
	if err != nil {
		t.Fatalf("third sync: %v", err)
	}
	if result.Upserted != 1 || result.Deleted != 1 {
		t.Errorf("third sync: %+v", result)
	}

	_, err = c.Get(ctx, "beta")
	if errors.AsEthosError(err).Code != errors.CodeNotFound {
		t.Errorf("expected NOT_FOUND for deleted persona, got %v", err)
	}
}

func TestSyncDelegations(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	p := testPersona("router", "f1")
	p.Delegations = []persona.DelegationRule{
		{Trigger: "perf", Target: "perf-expert"},
		{Trigger: "docs", Target: "doc-writer"},
	}
	if _, err := c.Sync(ctx, snapshot(t, p,
		testPersona("perf-expert", "f2"), testPersona("doc-writer", "f3"))); err != nil {
		t.Fatalf("sync: %v", err)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Personas != 3 || stats.Delegations != 2 {
		t.Errorf("stats: %+v", stats)
	}
	if stats.BySource["test"] != 3 {
		t.Errorf("by source: %+v", stats.BySource)
	}

	got, err := c.Get(ctx, "router")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Delegations) != 2 || got.Delegations[0].Target != "perf-expert" {
		t.Errorf("delegations: %+v", got.Delegations)
	}
}

func TestListPagination(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	personas := []persona.Persona{
		testPersona("p-a", "f1"), testPersona("p-b", "f2"),
		testPersona("p-c", "f3"), testPersona("p-d", "f4"),
		testPersona("p-e", "f5"),
	}
	if _, err := c.Sync(ctx, snapshot(t, personas...)); err != nil {
		t.Fatalf("sync: %v", err)
	}

	page, err := c.List(ctx, Filter{PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || len(page.Personas) != 2 || page.NextPageToken == "" {
		t.Fatalf("first page: total=%d len=%d token=%q", page.Total, len(page.Personas), page.NextPageToken)
	}
	if page.Personas[0].Name != "p-a" {
		t.Errorf("order: %s", page.Personas[0].Name)
	}

	page, err = c.List(ctx, Filter{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if page.Personas[0].Name != "p-c" {
		t.Errorf("second page start: %s", page.Personas[0].Name)
	}

	// Last page has no next token.
	page, err = c.List(ctx, Filter{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if len(page.Personas) != 1 || page.NextPageToken != "" {
		t.Errorf("last page: len=%d token=%q", len(page.Personas), page.NextPageToken)
	}
}

func TestListInvalidPageToken(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.List(context.Background(), Filter{PageToken: "not-base64!!"})
	if errors.AsEthosError(err).Code != errors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	reviewer := testPersona("code-reviewer", "f1", "Read", "Grep")
	reviewer.Description = "reviews code for style and bugs"
	optimizer := testPersona("performance-optimizer", "f2", "Bash(perf:*)")
	optimizer.Description = "hunts slow paths"
	if _, err := c.Sync(ctx, snapshot(t, reviewer, optimizer)); err != nil {
		t.Fatalf("sync: %v", err)
	}

	page, err := c.List(ctx, Filter{Tool: "Grep"})
	if err != nil {
		t.Fatalf("tool filter: %v", err)
	}
	if len(page.Personas) != 1 || page.Personas[0].Name != "code-reviewer" {
		t.Errorf("tool filter: %+v", page.Personas)
	}

	page, err = c.Search(ctx, "slow paths", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Personas) != 1 || page.Personas[0].Name != "performance-optimizer" {
		t.Errorf("search: %+v", page.Personas)
	}
}

func TestClampPageSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 50}, {-5, 50}, {10, 10}, {500, 500}, {501, 500},
	}
	for _, tc := range tests {
		if got := clampPageSize(tc.in); got != tc.want {
			t.Errorf("clampPageSize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
