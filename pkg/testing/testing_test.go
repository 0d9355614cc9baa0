// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"context"
	"testing"
	"time"

	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/lint"
	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/registry"
)

func TestDocMarkdownParses(t *testing.T) {
	doc := NewDoc("code-reviewer").
		WithDescription("Use this agent to review code changes.").
		WithExample("feature finished", "review my diff", "I'll use the code-reviewer agent.").
		WithTools("Read", "Grep", "Bash(git:*)").
		WithModel("sonnet").
		WithColor("green").
		WithDelegation("performance regression found", "performance-optimizer").
		WithOutputFormat("- verdict\n- findings")

	parsed, err := persona.Parse([]byte(doc.Markdown()), "code-reviewer.md", "test")
	RequireNoError(t, err, "parse generated doc")
	RequireEqual(t, 1, len(parsed), "document count")

	p := parsed[0]
	RequireEqual(t, "code-reviewer", p.Name, "name")
	RequireEqual(t, 3, len(p.Tools), "tools")
	RequireEqual(t, "sonnet", p.Model, "model")
	RequireEqual(t, 1, len(p.Examples), "examples")
	RequireEqual(t, 1, len(p.Delegations), "delegations")
	RequireEqual(t, "performance-optimizer", p.Delegations[0].Target, "delegation target")
	if p.OutputTemplate == "" {
		t.Error("output template missing")
	}
}

func TestCorpusStore(t *testing.T) {
	fixture := NewCorpus(t)
	fixture.WriteDoc(NewDoc("code-reviewer"))
	fixture.WriteDoc(NewDoc("database-tuner"))

	store := fixture.Store()
	reg := store.Current()
	if reg.Len() != 2 {
		t.Fatalf("expected 2 personas, got %d", reg.Len())
	}
	RequirePersona(t, reg.List(), "database-tuner")
}

func TestWritePacked(t *testing.T) {
	fixture := NewCorpus(t)
	fixture.WritePacked("pair.md", NewDoc("alpha"), NewDoc("beta"))

	res, err := fixture.Resolver().Resolve()
	RequireNoError(t, err, "resolve packed corpus")
	RequireEqual(t, 2, len(res.Personas), "personas from packed file")
}

func TestScenarioCleanCorpus(t *testing.T) {
	scenario := NewScenario("clean corpus").
		WithDoc(NewDoc("code-reviewer").
			WithExample("feature finished", "review my diff", "using code-reviewer")).
		WithDoc(NewDoc("database-tuner").
			WithExample("slow query", "tune this", "using database-tuner")).
		ExpectResolvedPersonas(2).
		ExpectNoErrors().
		ExpectNoFinding(lint.RuleMissingExamples)

	result := scenario.Run(t)
	result.Assert(t, scenario)
}

func TestScenarioMissingDescription(t *testing.T) {
	scenario := NewScenario("missing description").
		WithDoc(NewDoc("broken").WithDescription("")).
		ExpectResolvedPersonas(0).
		ExpectErrors().
		ExpectFinding(lint.RuleDescriptionRequired).
		ExpectFindingMessage(lint.RuleDescriptionRequired, Contains("description is required"))

	result := scenario.Run(t)
	result.Assert(t, scenario)
}

func TestScenarioDuplicateInPackedFile(t *testing.T) {
	scenario := NewScenario("duplicate id").
		WithPacked("pair.md", NewDoc("dup"), NewDoc("dup")).
		ExpectResolvedPersonas(1).
		ExpectShadowed(1).
		ExpectFinding(lint.RuleUniqueID)

	result := scenario.Run(t)
	result.Assert(t, scenario)
}

func TestScenarioStrictResolveError(t *testing.T) {
	scenario := NewScenario("strict duplicate").
		WithPacked("pair.md", NewDoc("dup"), NewDoc("dup")).
		WithResolverOptions(corpus.WithStrict()).
		ExpectResolveError(Contains("defined twice"))

	result := scenario.Run(t)
	result.Assert(t, scenario)
}

func TestScenarioSeverityOverride(t *testing.T) {
	scenario := NewScenario("escalated examples rule").
		WithDoc(NewDoc("plain")).
		WithLintOptions(lint.WithSeverityOverride(lint.RuleMissingExamples, lint.SeverityError)).
		ExpectErrors().
		ExpectSeverityCount(lint.SeverityError, 1)

	result := scenario.Run(t)
	result.Assert(t, scenario)
}

func TestMatchers(t *testing.T) {
	cases := []struct {
		matcher StringMatcher
		input   string
		want    bool
	}{
		{Contains("rev"), "code-reviewer", true},
		{Contains("zzz"), "code-reviewer", false},
		{Equals("exact"), "exact", true},
		{Equals("exact"), "exactly", false},
		{Regex(`^[a-z-]+$`), "code-reviewer", true},
		{Regex(`^\d+$`), "code-reviewer", false},
		{HasPrefix("code"), "code-reviewer", true},
		{HasSuffix("reviewer"), "code-reviewer", true},
	}
	for _, tc := range cases {
		if got := tc.matcher.Match(tc.input); got != tc.want {
			t.Errorf("%s on %q: got %v, want %v", tc.matcher.Description(), tc.input, got, tc.want)
		}
	}
}

func TestAssertFindings(t *testing.T) {
	scenario := NewScenario("finding assertions").
		WithDoc(NewDoc("broken").WithDescription(""))
	result := scenario.Run(t)

	a := NewAssertions(t)
	a.AssertFindings(result.Findings).
		HasRule(lint.RuleDescriptionRequired).
		HasSeverity(lint.RuleDescriptionRequired, lint.SeverityError).
		ForPersona(lint.RuleDescriptionRequired, "broken").
		HasNoRule(lint.RuleNameRequired)
	if a.Failed() {
		t.Error("assertions should have passed")
	}
}

func TestEventCollector(t *testing.T) {
	fixture := NewCorpus(t)
	fixture.WriteDoc(NewDoc("code-reviewer"))
	store := fixture.Store()

	collector := CollectEvents(t, store)
	RequireNoError(t, store.Reload(context.Background()), "reload")

	if !collector.WaitFor(registry.EventReloaded, time.Second) {
		t.Fatalf("no reload event, got %v", collector.Types())
	}
	if collector.Count() == 0 {
		t.Error("collector recorded nothing")
	}
	collector.Reset()
	if collector.Count() != 0 {
		t.Error("reset did not clear events")
	}
}
