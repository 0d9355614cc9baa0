package persona

import (
	"regexp"
	"strings"
)

// A Markdown pipe table is a delegation table when its header row names
// a trigger-like column and a target-like column. Anything else in the
// body is opaque Markdown and is left alone.
var (
	triggerHeaders = map[string]bool{
		"trigger": true, "condition": true, "when": true,
		"scenario": true, "situation": true, "task": true,
	}
	targetHeaders = map[string]bool{
		"target": true, "delegate": true, "delegate to": true,
		"persona": true, "agent": true, "hand off to": true, "route to": true,
	}

	linkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

// extractDelegations scans the body for delegation tables and returns
// the rules in document order plus any target cells that did not
// normalize to a persona id token.
func extractDelegations(body string) ([]DelegationRule, []string) {
	var rules []DelegationRule
	var bad []string

	lines := strings.Split(body, "\n")
	inFence := false
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || !isTableRow(trimmed) {
			continue
		}
		// Collect the contiguous table.
		start := i
		for i < len(lines) && isTableRow(strings.TrimSpace(lines[i])) {
			i++
		}
		table := lines[start:i]
		i--

		tableRules, tableBad := parseDelegationTable(table)
		rules = append(rules, tableRules...)
		bad = append(bad, tableBad...)
	}
	return rules, bad
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|")
}

func parseDelegationTable(rows []string) ([]DelegationRule, []string) {
	if len(rows) < 3 {
		return nil, nil
	}
	header := splitCells(rows[0])
	triggerCol, targetCol := -1, -1
	for idx, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if triggerHeaders[key] && triggerCol < 0 {
			triggerCol = idx
		}
		if targetHeaders[key] && targetCol < 0 {
			targetCol = idx
		}
	}
	if triggerCol < 0 || targetCol < 0 || triggerCol == targetCol {
		return nil, nil
	}
	if !isDividerRow(rows[1]) {
		return nil, nil
	}

	var rules []DelegationRule
	var bad []string
	for _, row := range rows[2:] {
		cells := splitCells(row)
		if len(cells) <= triggerCol || len(cells) <= targetCol {
			continue
		}
		trigger := strings.TrimSpace(cells[triggerCol])
		target := NormalizeTarget(cells[targetCol])
		if trigger == "" && target == "" {
			continue
		}
		if !namePattern.MatchString(target) {
			bad = append(bad, strings.TrimSpace(cells[targetCol]))
			continue
		}
		rules = append(rules, DelegationRule{Trigger: trigger, Target: target})
	}
	return rules, bad
}

func isDividerRow(row string) bool {
	for _, cell := range splitCells(row) {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if strings.Trim(cell, ":-") != "" {
			return false
		}
	}
	return true
}

func splitCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	return strings.Split(row, "|")
}

// NormalizeTarget strips Markdown decoration from a target cell:
// `code-reviewer`, **code-reviewer**, and [code-reviewer](...) all
// normalize to code-reviewer.
func NormalizeTarget(cell string) string {
	value := strings.TrimSpace(cell)
	value = linkPattern.ReplaceAllString(value, "$1")
	value = strings.Trim(value, "`*_ ")
	return strings.TrimSpace(value)
}
