// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

// Package testing provides fixtures for exercising persona corpora.
//
// This package includes:
//   - Document and corpus builders for on-disk persona fixtures
//   - Declarative lint scenarios with expectations
//   - Assertion helpers for findings and resolutions
//   - An event collector for registry lifecycle events
//
// Example usage:
//
//	scenario := testing.NewScenario("missing description").
//	    WithDoc(testing.NewDoc("broken").WithDescription("")).
//	    ExpectResolvedPersonas(0).
//	    ExpectFinding(lint.RuleDescriptionRequired)
//
//	result := scenario.Run(t)
//	result.Assert(t, scenario)
package testing

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/lint"
	"github.com/jllopis/ethos/pkg/registry"
)

// Scenario is a declarative corpus lint test: a set of documents, the
// linter configuration, and expectations over the outcome.
type Scenario struct {
	name         string
	description  string
	docs         []*Doc
	packed       map[string][]*Doc
	raw          map[string]string
	lintOpts     []lint.Option
	resolverOpts []corpus.ResolverOption
	expectations []Expectation
}

// Expectation defines a condition to verify after running a scenario.
type Expectation interface {
	// Check verifies the expectation against the result.
	Check(result *ScenarioResult) error
	// Description returns a human-readable description of the expectation.
	Description() string
}

// ScenarioResult contains the outcome of running a scenario.
type ScenarioResult struct {
	Resolution *corpus.Resolution
	Findings   []lint.Finding
	Err        error
}

// NewScenario creates a new scenario with the given name.
func NewScenario(name string) *Scenario {
	return &Scenario{
		name:   name,
		packed: make(map[string][]*Doc),
		raw:    make(map[string]string),
	}
}

// WithDescription adds a description to the scenario.
func (s *Scenario) WithDescription(desc string) *Scenario {
	s.description = desc
	return s
}

// WithDoc adds a document to the corpus.
func (s *Scenario) WithDoc(doc *Doc) *Scenario {
	s.docs = append(s.docs, doc)
	return s
}

// WithPacked adds a packed multi-document file to the corpus.
func (s *Scenario) WithPacked(filename string, docs ...*Doc) *Scenario {
	s.packed[filename] = docs
	return s
}

// WithRaw adds a file with literal content, for malformed-input cases.
func (s *Scenario) WithRaw(filename, content string) *Scenario {
	s.raw[filename] = content
	return s
}

// WithLintOptions configures the linter.
func (s *Scenario) WithLintOptions(opts ...lint.Option) *Scenario {
	s.lintOpts = append(s.lintOpts, opts...)
	return s
}

// WithResolverOptions configures the resolver.
func (s *Scenario) WithResolverOptions(opts ...corpus.ResolverOption) *Scenario {
	s.resolverOpts = append(s.resolverOpts, opts...)
	return s
}

// Expect adds an expectation to the scenario.
func (s *Scenario) Expect(exp Expectation) *Scenario {
	s.expectations = append(s.expectations, exp)
	return s
}

// ExpectFinding expects at least one finding for the rule.
func (s *Scenario) ExpectFinding(rule string) *Scenario {
	return s.Expect(&findingExpectation{rule: rule})
}

// ExpectNoFinding expects no finding for the rule.
func (s *Scenario) ExpectNoFinding(rule string) *Scenario {
	return s.Expect(&noFindingExpectation{rule: rule})
}

// ExpectFindingMessage expects a finding for the rule whose message
// satisfies the matcher.
func (s *Scenario) ExpectFindingMessage(rule string, matcher StringMatcher) *Scenario {
	return s.Expect(&findingMessageExpectation{rule: rule, matcher: matcher})
}

// ExpectNoErrors expects no error-severity findings.
func (s *Scenario) ExpectNoErrors() *Scenario {
	return s.Expect(&noErrorsExpectation{})
}

// ExpectErrors expects at least one error-severity finding.
func (s *Scenario) ExpectErrors() *Scenario {
	return s.Expect(&errorsExpectation{})
}

// ExpectSeverityCount expects exactly n findings of the severity.
func (s *Scenario) ExpectSeverityCount(severity lint.Severity, n int) *Scenario {
	return s.Expect(&severityCountExpectation{severity: severity, n: n})
}

// ExpectResolvedPersonas expects exactly n valid personas.
func (s *Scenario) ExpectResolvedPersonas(n int) *Scenario {
	return s.Expect(&resolvedExpectation{n: n})
}

// ExpectShadowed expects exactly n shadowed definitions.
func (s *Scenario) ExpectShadowed(n int) *Scenario {
	return s.Expect(&shadowedExpectation{n: n})
}

// ExpectResolveError expects the resolution itself to fail with an
// error matching the matcher.
func (s *Scenario) ExpectResolveError(matcher StringMatcher) *Scenario {
	return s.Expect(&resolveErrorExpectation{matcher: matcher})
}

// Run materializes the corpus, resolves it, and lints the resolution.
// Resolve errors land in the result rather than failing the test, so
// scenarios can assert on them.
func (s *Scenario) Run(t *testing.T) *ScenarioResult {
	t.Helper()

	fixture := NewCorpus(t)
	for _, doc := range s.docs {
		fixture.WriteDoc(doc)
	}
	for filename, docs := range s.packed {
		fixture.WritePacked(filename, docs...)
	}
	for filename, content := range s.raw {
		fixture.WriteRaw(filename, content)
	}

	res, err := fixture.Resolver(s.resolverOpts...).Resolve()
	if err != nil {
		return &ScenarioResult{Err: err}
	}
	linter := lint.New(s.lintOpts...)
	return &ScenarioResult{
		Resolution: res,
		Findings:   linter.Run(res),
	}
}

// Assert checks all expectations and reports failures to the test.
func (r *ScenarioResult) Assert(t *testing.T, scenario *Scenario) {
	t.Helper()

	for _, exp := range scenario.expectations {
		if err := exp.Check(r); err != nil {
			t.Errorf("scenario %q, expectation %q failed: %v", scenario.name, exp.Description(), err)
		}
	}
}

// StringMatcher defines how to match strings in expectations.
type StringMatcher interface {
	Match(s string) bool
	Description() string
}

// Contains returns a matcher that checks if the string contains the substring.
func Contains(substr string) StringMatcher {
	return &containsMatcher{substr: substr}
}

// Equals returns a matcher that checks exact string equality.
func Equals(expected string) StringMatcher {
	return &equalsMatcher{expected: expected}
}

// Regex returns a matcher that checks against a regular expression.
func Regex(pattern string) StringMatcher {
	return &regexMatcher{pattern: pattern}
}

// HasPrefix returns a matcher that checks if the string has the given prefix.
func HasPrefix(prefix string) StringMatcher {
	return &prefixMatcher{prefix: prefix}
}

// HasSuffix returns a matcher that checks if the string has the given suffix.
func HasSuffix(suffix string) StringMatcher {
	return &suffixMatcher{suffix: suffix}
}

type containsMatcher struct {
	substr string
}

func (m *containsMatcher) Match(s string) bool {
	return strings.Contains(s, m.substr)
}

func (m *containsMatcher) Description() string {
	return fmt.Sprintf("contains %q", m.substr)
}

type equalsMatcher struct {
	expected string
}

func (m *equalsMatcher) Match(s string) bool {
	return s == m.expected
}

func (m *equalsMatcher) Description() string {
	return fmt.Sprintf("equals %q", m.expected)
}

type regexMatcher struct {
	pattern string
}

func (m *regexMatcher) Match(s string) bool {
	re, err := regexp.Compile(m.pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func (m *regexMatcher) Description() string {
	return fmt.Sprintf("matches regex %q", m.pattern)
}

type prefixMatcher struct {
	prefix string
}

func (m *prefixMatcher) Match(s string) bool {
	return strings.HasPrefix(s, m.prefix)
}

func (m *prefixMatcher) Description() string {
	return fmt.Sprintf("has prefix %q", m.prefix)
}

type suffixMatcher struct {
	suffix string
}

func (m *suffixMatcher) Match(s string) bool {
	return strings.HasSuffix(s, m.suffix)
}

func (m *suffixMatcher) Description() string {
	return fmt.Sprintf("has suffix %q", m.suffix)
}

// Expectation implementations

type findingExpectation struct {
	rule string
}

func (e *findingExpectation) Check(r *ScenarioResult) error {
	for _, f := range r.Findings {
		if f.Rule == e.rule {
			return nil
		}
	}
	return fmt.Errorf("no finding for rule %q in %v", e.rule, ruleNames(r.Findings))
}

func (e *findingExpectation) Description() string {
	return fmt.Sprintf("finding for %q", e.rule)
}

type noFindingExpectation struct {
	rule string
}

func (e *noFindingExpectation) Check(r *ScenarioResult) error {
	for _, f := range r.Findings {
		if f.Rule == e.rule {
			return fmt.Errorf("unexpected finding for rule %q: %s", e.rule, f.Message)
		}
	}
	return nil
}

func (e *noFindingExpectation) Description() string {
	return fmt.Sprintf("no finding for %q", e.rule)
}

type findingMessageExpectation struct {
	rule    string
	matcher StringMatcher
}

func (e *findingMessageExpectation) Check(r *ScenarioResult) error {
	var seen []string
	for _, f := range r.Findings {
		if f.Rule != e.rule {
			continue
		}
		if e.matcher.Match(f.Message) {
			return nil
		}
		seen = append(seen, f.Message)
	}
	if len(seen) == 0 {
		return fmt.Errorf("no finding for rule %q", e.rule)
	}
	return fmt.Errorf("no %q message matches %s, got %v", e.rule, e.matcher.Description(), seen)
}

func (e *findingMessageExpectation) Description() string {
	return fmt.Sprintf("finding for %q with message %s", e.rule, e.matcher.Description())
}

type noErrorsExpectation struct{}

func (e *noErrorsExpectation) Check(r *ScenarioResult) error {
	if r.Err != nil {
		return fmt.Errorf("resolution failed: %v", r.Err)
	}
	if lint.HasErrors(r.Findings) {
		return fmt.Errorf("unexpected error findings: %v", ruleNames(r.Findings))
	}
	return nil
}

func (e *noErrorsExpectation) Description() string {
	return "no error findings"
}

type errorsExpectation struct{}

func (e *errorsExpectation) Check(r *ScenarioResult) error {
	if !lint.HasErrors(r.Findings) {
		return fmt.Errorf("expected error findings, got %v", ruleNames(r.Findings))
	}
	return nil
}

func (e *errorsExpectation) Description() string {
	return "error findings present"
}

type severityCountExpectation struct {
	severity lint.Severity
	n        int
}

func (e *severityCountExpectation) Check(r *ScenarioResult) error {
	got := lint.CountBySeverity(r.Findings)[e.severity]
	if got != e.n {
		return fmt.Errorf("expected %d %s findings, got %d", e.n, e.severity, got)
	}
	return nil
}

func (e *severityCountExpectation) Description() string {
	return fmt.Sprintf("%d %s findings", e.n, e.severity)
}

type resolvedExpectation struct {
	n int
}

func (e *resolvedExpectation) Check(r *ScenarioResult) error {
	if r.Resolution == nil {
		return fmt.Errorf("no resolution: %v", r.Err)
	}
	if got := len(r.Resolution.Personas); got != e.n {
		return fmt.Errorf("expected %d personas, got %d", e.n, got)
	}
	return nil
}

func (e *resolvedExpectation) Description() string {
	return fmt.Sprintf("%d resolved personas", e.n)
}

type shadowedExpectation struct {
	n int
}

func (e *shadowedExpectation) Check(r *ScenarioResult) error {
	if r.Resolution == nil {
		return fmt.Errorf("no resolution: %v", r.Err)
	}
	if got := len(r.Resolution.Shadowed); got != e.n {
		return fmt.Errorf("expected %d shadowed, got %d", e.n, got)
	}
	return nil
}

func (e *shadowedExpectation) Description() string {
	return fmt.Sprintf("%d shadowed definitions", e.n)
}

type resolveErrorExpectation struct {
	matcher StringMatcher
}

func (e *resolveErrorExpectation) Check(r *ScenarioResult) error {
	if r.Err == nil {
		return fmt.Errorf("expected resolve error matching %s, got nil", e.matcher.Description())
	}
	if !e.matcher.Match(r.Err.Error()) {
		return fmt.Errorf("resolve error %q does not match: %s", r.Err.Error(), e.matcher.Description())
	}
	return nil
}

func (e *resolveErrorExpectation) Description() string {
	return fmt.Sprintf("resolve error %s", e.matcher.Description())
}

func ruleNames(findings []lint.Finding) []string {
	names := make([]string, len(findings))
	for i, f := range findings {
		names[i] = f.Rule
	}
	return names
}

// EventCollector records registry lifecycle events.
type EventCollector struct {
	mu     sync.RWMutex
	events []registry.Event
	notify chan struct{}
	cancel func()
}

// NewEventCollector creates an empty collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{notify: make(chan struct{}, 1)}
}

// CollectEvents subscribes a collector to the store. Cleanup happens
// when the test finishes.
func CollectEvents(t *testing.T, store *registry.Store) *EventCollector {
	t.Helper()
	c := NewEventCollector()
	events, unsubscribe := store.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			c.Collect(ev)
		}
	}()
	c.cancel = func() {
		unsubscribe()
		<-done
	}
	t.Cleanup(c.Close)
	return c
}

// Close detaches the collector from its store.
func (c *EventCollector) Close() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Collect adds an event to the collector.
func (c *EventCollector) Collect(event registry.Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Events returns all collected events.
func (c *EventCollector) Events() []registry.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]registry.Event, len(c.events))
	copy(result, c.events)
	return result
}

// Types returns the types of all collected events.
func (c *EventCollector) Types() []registry.EventType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]registry.EventType, len(c.events))
	for i, ev := range c.events {
		types[i] = ev.Type
	}
	return types
}

// Has checks if an event of the given type was collected.
func (c *EventCollector) Has(eventType registry.EventType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ev := range c.events {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

// WaitFor blocks until an event of the given type arrives or the
// timeout elapses.
func (c *EventCollector) WaitFor(eventType registry.EventType, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if c.Has(eventType) {
			return true
		}
		select {
		case <-c.notify:
		case <-deadline:
			return c.Has(eventType)
		}
	}
}

// Count returns the number of collected events.
func (c *EventCollector) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// Reset clears all collected events.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}
