package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/delegation"
	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/registry"
)

type emitFunc func(rule, personaName, path, message string)

func allDocuments(res *corpus.Resolution) []persona.Persona {
	out := make([]persona.Persona, 0, len(res.Personas)+len(res.Invalid))
	out = append(out, res.Personas...)
	for _, invalid := range res.Invalid {
		out = append(out, invalid.Persona)
	}
	return out
}

func (l *Linter) checkDocuments(res *corpus.Resolution, emit emitFunc) {
	for _, doc := range allDocuments(res) {
		name := strings.TrimSpace(doc.Name)
		if name == "" {
			emit(RuleNameRequired, "", doc.Path, "persona name is required")
		} else {
			if utf8.RuneCountInString(name) > persona.MaxNameLen {
				emit(RuleNameFormat, name, doc.Path,
					fmt.Sprintf("name exceeds %d characters", persona.MaxNameLen))
			} else if !persona.NamePattern(name) {
				emit(RuleNameFormat, name, doc.Path,
					"name must be lowercase kebab-case")
			}
		}
		if strings.TrimSpace(doc.Description) == "" {
			emit(RuleDescriptionRequired, name, doc.Path, "persona description is required")
		} else if utf8.RuneCountInString(doc.Description) > persona.MaxDescriptionLen {
			emit(RuleDescriptionLength, name, doc.Path,
				fmt.Sprintf("description exceeds %d characters", persona.MaxDescriptionLen))
		}
		if len(doc.Examples) == 0 {
			emit(RuleMissingExamples, displayName(name, doc.Path), doc.Path,
				"description carries no trigger examples")
		}
	}

	// File-name match applies to standalone files holding one document.
	byPath := make(map[string][]persona.Persona)
	for _, doc := range allDocuments(res) {
		byPath[doc.Path] = append(byPath[doc.Path], doc)
	}
	for path, docs := range byPath {
		if len(docs) != 1 {
			continue
		}
		doc := docs[0]
		name := strings.TrimSpace(doc.Name)
		if name == "" {
			continue
		}
		base := filepath.Base(path)
		if strings.EqualFold(base, "PERSONA.md") {
			// Directory layout: the parent directory carries the id.
			if parent := filepath.Base(filepath.Dir(path)); parent != name {
				emit(RuleFileNameMatch, name, path,
					fmt.Sprintf("directory %q does not match persona name %q", parent, name))
			}
			continue
		}
		if strings.TrimSuffix(base, ".md") != name {
			emit(RuleFileNameMatch, name, path,
				fmt.Sprintf("file %q does not match persona name %q", base, name))
		}
	}
}

func (l *Linter) checkCorpus(res *corpus.Resolution, emit emitFunc) {
	for _, shadowed := range res.Shadowed {
		if shadowed.SourceName == shadowed.WinnerSource {
			emit(RuleUniqueID, shadowed.Name, shadowed.Path,
				fmt.Sprintf("persona %q defined more than once in source %q",
					shadowed.Name, shadowed.SourceName))
			continue
		}
		emit(RuleShadowedID, shadowed.Name, shadowed.Path,
			fmt.Sprintf("persona %q shadowed by higher-priority source %q",
				shadowed.Name, shadowed.WinnerSource))
	}
}

func (l *Linter) checkDelegations(res *corpus.Resolution, emit emitFunc) {
	reg, err := registry.New(res.Personas)
	if err != nil {
		// Duplicates are already reported by checkCorpus.
		return
	}
	analysis := delegation.Build(reg).Analyze()

	pathOf := func(id string) string {
		if p, err := reg.Lookup(id); err == nil {
			return p.Path
		}
		return ""
	}
	for _, edge := range analysis.MissingTargets {
		emit(RuleTargetExists, edge.From, pathOf(edge.From),
			fmt.Sprintf("delegation target %q does not resolve to a persona", edge.To))
	}
	for _, id := range analysis.SelfTargets {
		emit(RuleSelfTarget, id, pathOf(id), "persona delegates to itself")
	}
	for _, cycle := range analysis.Cycles {
		emit(RuleCycle, cycle[0], pathOf(cycle[0]),
			"delegation cycle: "+strings.Join(cycle, " -> "))
	}
	for _, id := range analysis.Unreachable {
		emit(RuleUnreachable, id, pathOf(id),
			"persona has no delegation edges in or out")
	}

	for _, doc := range res.Personas {
		for _, badTarget := range doc.BadDelegationTargets {
			emit(RuleTargetExists, doc.Name, doc.Path,
				fmt.Sprintf("delegation target %q is not a persona id", badTarget))
		}
	}
}

func (l *Linter) checkTools(res *corpus.Resolution, emit emitFunc) {
	for _, doc := range res.Personas {
		for _, tool := range doc.DuplicateTools {
			emit(RuleDuplicateTool, doc.Name, doc.Path,
				fmt.Sprintf("tool %q listed more than once", tool))
		}
		if l.tools == nil {
			continue
		}
		for _, tool := range doc.Tools {
			if !l.tools.Known(tool) {
				emit(RuleUnknownTool, doc.Name, doc.Path,
					fmt.Sprintf("tool %q not found in inventory", tool))
			}
		}
	}
}

func (l *Linter) checkTemplates(res *corpus.Resolution, emit emitFunc) {
	for _, doc := range res.Personas {
		if strings.TrimSpace(doc.OutputTemplate) == "" {
			emit(RuleMissingOutput, doc.Name, doc.Path,
				"document has no output-format section")
		}
	}
}

func (l *Linter) checkBundles(res *corpus.Resolution, emit emitFunc) {
	seen := make(map[string]bool)
	for _, doc := range allDocuments(res) {
		if seen[doc.Path] {
			continue
		}
		seen[doc.Path] = true
		raw, err := os.ReadFile(doc.Path)
		if err != nil {
			continue
		}
		if n := persona.CountEmptySegments(string(raw)); n > 0 {
			emit(RuleDanglingSeparator, "", doc.Path,
				fmt.Sprintf("%d empty segment(s) around separator tokens", n))
		}
	}
}
