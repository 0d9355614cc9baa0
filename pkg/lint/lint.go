// Package lint checks a persona corpus against the document, corpus,
// delegation, tooling and content rule sets and reports findings with
// stable rule ids.
package lint

import (
	"sort"
	"strings"

	"github.com/jllopis/ethos/pkg/corpus"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// Finding is a single lint result.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Persona  string   `json:"persona,omitempty"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
}

// Rule ids, in evaluation order.
const (
	RuleNameRequired        = "doc/name-required"
	RuleDescriptionRequired = "doc/description-required"
	RuleNameFormat          = "doc/name-format"
	RuleDescriptionLength   = "doc/description-length"
	RuleFileNameMatch       = "doc/file-name-match"
	RuleUniqueID            = "corpus/unique-id"
	RuleShadowedID          = "corpus/shadowed-id"
	RuleTargetExists        = "delegation/target-exists"
	RuleSelfTarget          = "delegation/self-target"
	RuleCycle               = "delegation/cycle"
	RuleUnreachable         = "delegation/unreachable"
	RuleDuplicateTool       = "tools/duplicate"
	RuleUnknownTool         = "tools/unknown"
	RuleMissingOutput       = "template/missing-output"
	RuleMissingExamples     = "doc/missing-examples"
	RuleDanglingSeparator   = "bundle/dangling-separator"
	RuleInjectionPattern    = "content/injection-pattern"
	RuleCredentialMaterial  = "content/credential-material"
)

var defaultSeverities = map[string]Severity{
	RuleNameRequired:        SeverityError,
	RuleDescriptionRequired: SeverityError,
	RuleNameFormat:          SeverityError,
	RuleDescriptionLength:   SeverityWarn,
	RuleFileNameMatch:       SeverityWarn,
	RuleUniqueID:            SeverityError,
	RuleShadowedID:          SeverityInfo,
	RuleTargetExists:        SeverityError,
	RuleSelfTarget:          SeverityWarn,
	RuleCycle:               SeverityWarn,
	RuleUnreachable:         SeverityInfo,
	RuleDuplicateTool:       SeverityWarn,
	RuleUnknownTool:         SeverityWarn,
	RuleMissingOutput:       SeverityInfo,
	RuleMissingExamples:     SeverityInfo,
	RuleDanglingSeparator:   SeverityWarn,
	RuleInjectionPattern:    SeverityWarn,
	RuleCredentialMaterial:  SeverityWarn,
}

// ToolChecker reports whether a tool name is known to the inventory.
// A nil checker disables the tools/unknown rule.
type ToolChecker interface {
	Known(tool string) bool
}

// Linter runs the rule set over a resolved corpus.
type Linter struct {
	overrides map[string]Severity
	disabled  map[string]bool
	tools     ToolChecker
}

// Option configures a Linter.
type Option func(*Linter)

// WithSeverityOverride changes the severity of a rule.
func WithSeverityOverride(rule string, severity Severity) Option {
	return func(l *Linter) { l.overrides[rule] = severity }
}

// WithDisabledRules turns rules off entirely.
func WithDisabledRules(rules ...string) Option {
	return func(l *Linter) {
		for _, rule := range rules {
			l.disabled[rule] = true
		}
	}
}

// WithToolChecker enables the tools/unknown rule against an inventory.
func WithToolChecker(tools ToolChecker) Option {
	return func(l *Linter) { l.tools = tools }
}

// New creates a linter with the default rule severities.
func New(opts ...Option) *Linter {
	l := &Linter{
		overrides: make(map[string]Severity),
		disabled:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run evaluates every rule over the resolution and returns findings
// sorted by path, then rule id.
func (l *Linter) Run(res *corpus.Resolution) []Finding {
	var findings []Finding
	emit := func(rule, personaName, path, message string) {
		if l.disabled[rule] {
			return
		}
		severity := defaultSeverities[rule]
		if override, ok := l.overrides[rule]; ok {
			severity = override
		}
		findings = append(findings, Finding{
			Rule:     rule,
			Severity: severity,
			Persona:  personaName,
			Path:     path,
			Message:  message,
		})
	}

	l.checkDocuments(res, emit)
	l.checkCorpus(res, emit)
	l.checkDelegations(res, emit)
	l.checkTools(res, emit)
	l.checkTemplates(res, emit)
	l.checkBundles(res, emit)
	l.checkContent(res, emit)

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Rule < findings[j].Rule
	})
	return findings
}

// HasErrors reports whether any finding carries error severity. The
// CLI maps this to exit code 1.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity tallies findings per severity for summaries.
func CountBySeverity(findings []Finding) map[Severity]int {
	out := make(map[Severity]int)
	for _, f := range findings {
		out[f.Severity]++
	}
	return out
}

func displayName(name, path string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return path
}
