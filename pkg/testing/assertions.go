// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jllopis/ethos/pkg/lint"
	"github.com/jllopis/ethos/pkg/persona"
)

// Assertions provides assertion helpers for testing.
type Assertions struct {
	t      *testing.T
	failed bool
}

// NewAssertions creates a new assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// Failed returns true if any assertion has failed.
func (a *Assertions) Failed() bool {
	return a.failed
}

// AssertEqual asserts that two values are equal.
func (a *Assertions) AssertEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected != actual {
		a.t.Errorf("%s: expected %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertNotEqual asserts that two values are not equal.
func (a *Assertions) AssertNotEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected == actual {
		a.t.Errorf("%s: expected not %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertTrue asserts that the value is true.
func (a *Assertions) AssertTrue(value bool, msg string) {
	a.t.Helper()
	if !value {
		a.t.Errorf("%s: expected true", msg)
		a.failed = true
	}
}

// AssertFalse asserts that the value is false.
func (a *Assertions) AssertFalse(value bool, msg string) {
	a.t.Helper()
	if value {
		a.t.Errorf("%s: expected false", msg)
		a.failed = true
	}
}

// AssertContains asserts that the string contains the substring.
func (a *Assertions) AssertContains(s, substr, msg string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.t.Errorf("%s: %q does not contain %q", msg, s, substr)
		a.failed = true
	}
}

// AssertNotContains asserts that the string does not contain the substring.
func (a *Assertions) AssertNotContains(s, substr, msg string) {
	a.t.Helper()
	if strings.Contains(s, substr) {
		a.t.Errorf("%s: %q should not contain %q", msg, s, substr)
		a.failed = true
	}
}

// AssertError asserts that the error is not nil.
func (a *Assertions) AssertError(err error, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error, got nil", msg)
		a.failed = true
	}
}

// AssertNoError asserts that the error is nil.
func (a *Assertions) AssertNoError(err error, msg string) {
	a.t.Helper()
	if err != nil {
		a.t.Errorf("%s: unexpected error: %v", msg, err)
		a.failed = true
	}
}

// AssertErrorContains asserts that the error message contains the substring.
func (a *Assertions) AssertErrorContains(err error, substr, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error containing %q, got nil", msg, substr)
		a.failed = true
		return
	}
	if !strings.Contains(err.Error(), substr) {
		a.t.Errorf("%s: error %q does not contain %q", msg, err.Error(), substr)
		a.failed = true
	}
}

// AssertLen asserts the length of a slice or map.
func (a *Assertions) AssertLen(value any, expected int, msg string) {
	a.t.Helper()
	var length int
	switch v := value.(type) {
	case string:
		length = len(v)
	case []any:
		length = len(v)
	case []string:
		length = len(v)
	case []lint.Finding:
		length = len(v)
	case []persona.Persona:
		length = len(v)
	case map[string]any:
		length = len(v)
	default:
		a.t.Errorf("%s: cannot get length of %T", msg, value)
		a.failed = true
		return
	}
	if length != expected {
		a.t.Errorf("%s: expected length %d, got %d", msg, expected, length)
		a.failed = true
	}
}

// FindingAssertions provides assertion helpers for lint findings.
type FindingAssertions struct {
	*Assertions
	findings []lint.Finding
}

// AssertFindings creates finding assertions for the given findings.
func (a *Assertions) AssertFindings(findings []lint.Finding) *FindingAssertions {
	return &FindingAssertions{Assertions: a, findings: findings}
}

// HasCount asserts the number of findings.
func (f *FindingAssertions) HasCount(count int) *FindingAssertions {
	f.t.Helper()
	if len(f.findings) != count {
		f.t.Errorf("expected %d findings, got %d: %s", count, len(f.findings), FormatFindings(f.findings))
		f.failed = true
	}
	return f
}

// HasRule asserts a finding for the given rule exists.
func (f *FindingAssertions) HasRule(rule string) *FindingAssertions {
	f.t.Helper()
	for _, finding := range f.findings {
		if finding.Rule == rule {
			return f
		}
	}
	f.t.Errorf("no finding for rule %q in %s", rule, FormatFindings(f.findings))
	f.failed = true
	return f
}

// HasNoRule asserts no finding for the given rule exists.
func (f *FindingAssertions) HasNoRule(rule string) *FindingAssertions {
	f.t.Helper()
	for _, finding := range f.findings {
		if finding.Rule == rule {
			f.t.Errorf("unexpected finding for rule %q: %s", rule, finding.Message)
			f.failed = true
			return f
		}
	}
	return f
}

// HasSeverity asserts the rule's finding carries the given severity.
func (f *FindingAssertions) HasSeverity(rule string, severity lint.Severity) *FindingAssertions {
	f.t.Helper()
	for _, finding := range f.findings {
		if finding.Rule == rule {
			if finding.Severity != severity {
				f.t.Errorf("rule %q: expected severity %s, got %s", rule, severity, finding.Severity)
				f.failed = true
			}
			return f
		}
	}
	f.t.Errorf("no finding for rule %q", rule)
	f.failed = true
	return f
}

// ForPersona asserts the rule's finding names the given persona.
func (f *FindingAssertions) ForPersona(rule, name string) *FindingAssertions {
	f.t.Helper()
	for _, finding := range f.findings {
		if finding.Rule == rule && finding.Persona == name {
			return f
		}
	}
	f.t.Errorf("no finding for rule %q on persona %q in %s", rule, name, FormatFindings(f.findings))
	f.failed = true
	return f
}

// HasNoErrors asserts no error-severity findings exist.
func (f *FindingAssertions) HasNoErrors() *FindingAssertions {
	f.t.Helper()
	if lint.HasErrors(f.findings) {
		f.t.Errorf("unexpected error findings: %s", FormatFindings(f.findings))
		f.failed = true
	}
	return f
}

// Quick assertion functions for common patterns

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// RequireEqual fails the test immediately if values are not equal.
func RequireEqual(t *testing.T, expected, actual any, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// RequirePersona fails the test immediately if the personas slice has
// no entry with the given name, and returns the match otherwise.
func RequirePersona(t *testing.T, personas []persona.Persona, name string) persona.Persona {
	t.Helper()
	for _, p := range personas {
		if p.Name == name {
			return p
		}
	}
	names := make([]string, len(personas))
	for i, p := range personas {
		names[i] = p.Name
	}
	t.Fatalf("persona %q not found in %v", name, names)
	return persona.Persona{}
}

// FormatFindings formats findings for error messages.
func FormatFindings(findings []lint.Finding) string {
	if len(findings) == 0 {
		return "(none)"
	}
	parts := make([]string, len(findings))
	for i, f := range findings {
		parts[i] = fmt.Sprintf("%s/%s", f.Severity, f.Rule)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
