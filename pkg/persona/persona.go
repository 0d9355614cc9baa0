// Package persona parses agent persona documents: Markdown files with a
// YAML front-matter block describing a named behavioral profile for an
// LLM coding assistant.
package persona

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/ethos/pkg/errors"
)

// Persona is a parsed persona document. Immutable after parse.
type Persona struct {
	Name        string
	Description string
	// Summary is Description with trigger-example blocks removed and
	// whitespace collapsed. Used for tables and indexing.
	Summary  string
	Examples []TriggerExample
	// Tools is the ordered, deduped tool allowlist. Nil means the
	// persona inherits all tools (the corpus convention for an absent
	// or empty tools field).
	Tools []string
	// DuplicateTools lists entries that appeared more than once in the
	// source list before dedupe, kept for lint.
	DuplicateTools []string
	Model          string
	Color    string
	Metadata map[string]string
	// Delegations are rules extracted from delegation tables in the
	// body. Informational data only; nothing in ethos executes them.
	Delegations []DelegationRule
	// BadDelegationTargets holds target cells that did not normalize to
	// a persona id token. Their rows are dropped from Delegations.
	BadDelegationTargets []string
	// OutputTemplate is the raw Markdown of the output-format section,
	// or "" when the document has none.
	OutputTemplate string
	Body           string
	// Raw is the document text exactly as read, frontmatter included.
	// Bundling emits it verbatim so pack and unpack never re-serialize
	// YAML.
	Raw string
	// Fingerprint is the SHA-256 hex of the raw document bytes.
	Fingerprint string

	// Provenance.
	Path       string
	SourceName string
	// Ordinal is the position of the document within a packed file.
	Ordinal int
}

// DelegationRule is a documented hand-off suggestion: when the trigger
// condition holds, the task should go to the target persona.
type DelegationRule struct {
	Trigger string `json:"trigger" yaml:"trigger"`
	Target  string `json:"target" yaml:"target"`
}

// TriggerExample is an invocation example embedded in the description.
type TriggerExample struct {
	Context    string
	User       string
	Assistant  string
	Commentary string
}

const (
	// MaxNameLen is the maximum persona name length in runes.
	MaxNameLen = 64
	// MaxDescriptionLen is the maximum description length in runes.
	MaxDescriptionLen = 4096
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NamePattern reports whether value is a well-formed persona id token.
func NamePattern(value string) bool {
	return namePattern.MatchString(value)
}

type frontmatter struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	Tools        any               `yaml:"tools"`
	AllowedTools any               `yaml:"allowed-tools"`
	Model        string            `yaml:"model"`
	Color        string            `yaml:"color"`
	Metadata     map[string]string `yaml:"metadata"`
}

// ParseFile parses a persona file. Files holding several documents
// joined by separator tokens yield one Persona per segment.
func ParseFile(path, sourceName string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path, sourceName)
}

// Parse parses raw document bytes, splitting on packaging separators.
func Parse(data []byte, path, sourceName string) ([]Persona, error) {
	segments := SplitDocuments(string(data))
	out := make([]Persona, 0, len(segments))
	for i, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		doc, err := parseDocument(segment)
		if err != nil {
			ee := errors.AsEthosError(err).
				WithContext("path", path)
			if len(segments) > 1 {
				ee = ee.WithContext("segment", i)
			}
			return nil, ee
		}
		doc.Path = path
		doc.SourceName = sourceName
		doc.Ordinal = i
		out = append(out, doc)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.CodeParseError, "no persona documents found", nil).
			WithContext("path", path)
	}
	return out, nil
}

func parseDocument(content string) (Persona, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return Persona{}, err
	}
	var parsed frontmatter
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return Persona{}, errors.New(errors.CodeParseError, "parse frontmatter", err)
	}
	toolsField := parsed.Tools
	if toolsField == nil {
		toolsField = parsed.AllowedTools
	}
	tools, duplicateTools, err := normalizeTools(toolsField)
	if err != nil {
		return Persona{}, err
	}

	body = strings.TrimSpace(body)
	examples, summary := extractExamples(parsed.Description)
	rules, bad := extractDelegations(body)
	sum := sha256.Sum256([]byte(content))

	return Persona{
		Name:                 strings.TrimSpace(parsed.Name),
		Description:          parsed.Description,
		Summary:              summary,
		Examples:             examples,
		Tools:                tools,
		DuplicateTools:       duplicateTools,
		Model:                strings.TrimSpace(parsed.Model),
		Color:                strings.TrimSpace(parsed.Color),
		Metadata:             parsed.Metadata,
		Delegations:          rules,
		BadDelegationTargets: bad,
		OutputTemplate:       extractOutputTemplate(body),
		Body:                 body,
		Raw:                  strings.TrimSpace(content),
		Fingerprint:          hex.EncodeToString(sum[:]),
	}, nil
}

func splitFrontmatter(content string) (string, string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", errors.New(errors.CodeParseError, "missing frontmatter", nil)
	}
	parts := strings.SplitN(trimmed, "---", 3)
	if len(parts) < 3 {
		return "", "", errors.New(errors.CodeParseError, "unterminated frontmatter", nil)
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

// Validate checks the document-level invariants: non-empty name in
// kebab-case, non-empty description, bounded lengths.
func (p Persona) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New(errors.CodeInvalidDocument, "name is required", nil).
			WithContext("path", p.Path)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return errors.New(errors.CodeInvalidDocument,
			fmt.Sprintf("name exceeds %d characters", MaxNameLen), nil).
			WithContext("path", p.Path)
	}
	if !namePattern.MatchString(name) {
		return errors.New(errors.CodeInvalidDocument,
			fmt.Sprintf("name must match %s", namePattern.String()), nil).
			WithContext("path", p.Path)
	}
	if strings.TrimSpace(p.Description) == "" {
		return errors.New(errors.CodeInvalidDocument, "description is required", nil).
			WithContext("path", p.Path).
			WithContext("persona", name)
	}
	return nil
}

func normalizeTools(value any) (tools, duplicates []string, err error) {
	if value == nil {
		return nil, nil, nil
	}
	switch v := value.(type) {
	case string:
		fields := strings.FieldsFunc(sanitizeTool(v), func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
		tools, duplicates = dedupe(fields)
		return tools, duplicates, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, nil, errors.New(errors.CodeParseError, "tools must be string list", nil)
			}
			out = append(out, sanitizeTool(strings.TrimSpace(str)))
		}
		tools, duplicates = dedupe(out)
		return tools, duplicates, nil
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, sanitizeTool(strings.TrimSpace(item)))
		}
		tools, duplicates = dedupe(out)
		return tools, duplicates, nil
	default:
		return nil, nil, errors.New(errors.CodeParseError, "tools must be string or list", nil)
	}
}

func sanitizeTool(input string) string {
	replacer := strings.NewReplacer(
		"( ", "(",
		" )", ")",
		": ", ":",
		" :", ":",
	)
	return replacer.Replace(input)
}

func dedupe(items []string) (out, duplicates []string) {
	seen := make(map[string]bool, len(items))
	reported := make(map[string]bool)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if seen[item] {
			if !reported[item] {
				reported[item] = true
				duplicates = append(duplicates, item)
			}
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, duplicates
	}
	return out, duplicates
}
