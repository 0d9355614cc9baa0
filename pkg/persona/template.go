package persona

import (
	"regexp"
	"strings"
)

var (
	examplePattern    = regexp.MustCompile(`(?s)<example>(.*?)</example>`)
	commentaryPattern = regexp.MustCompile(`(?s)<commentary>(.*?)</commentary>`)
	headingPattern    = regexp.MustCompile(`^(#{2,3})\s+(.+?)\s*$`)

	outputHeadings = map[string]bool{
		"output": true, "output format": true, "output structure": true,
		"response format": true, "report format": true, "deliverables format": true,
	}
)

// extractExamples pulls <example> trigger blocks out of the description
// and returns them together with the cleaned summary text.
func extractExamples(description string) ([]TriggerExample, string) {
	matches := examplePattern.FindAllStringSubmatch(description, -1)
	var examples []TriggerExample
	for _, match := range matches {
		examples = append(examples, parseExample(match[1]))
	}
	summary := examplePattern.ReplaceAllString(description, " ")
	summary = strings.Join(strings.Fields(summary), " ")
	return examples, summary
}

func parseExample(block string) TriggerExample {
	example := TriggerExample{}
	if m := commentaryPattern.FindStringSubmatch(block); m != nil {
		example.Commentary = strings.TrimSpace(m[1])
		block = commentaryPattern.ReplaceAllString(block, "")
	}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "context:"):
			example.Context = strings.TrimSpace(line[len("context:"):])
		case strings.HasPrefix(lower, "user:"):
			example.User = trimQuotes(line[len("user:"):])
		case strings.HasPrefix(lower, "assistant:"):
			example.Assistant = trimQuotes(line[len("assistant:"):])
		}
	}
	return example
}

func trimQuotes(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, `"'`)
}

// extractOutputTemplate returns the raw Markdown of the first body
// section whose heading names an output format, heading excluded,
// captured until the next heading of the same or higher level.
func extractOutputTemplate(body string) string {
	lines := strings.Split(body, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingPattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		title := strings.ToLower(strings.TrimSpace(m[2]))
		if !outputHeadings[title] {
			continue
		}
		level := len(m[1])
		var section []string
		sectionFence := false
		for _, next := range lines[i+1:] {
			nextTrimmed := strings.TrimSpace(next)
			if strings.HasPrefix(nextTrimmed, "```") {
				sectionFence = !sectionFence
			}
			if !sectionFence {
				if nm := headingPattern.FindStringSubmatch(nextTrimmed); nm != nil && len(nm[1]) <= level {
					break
				}
			}
			section = append(section, next)
		}
		return strings.TrimSpace(strings.Join(section, "\n"))
	}
	return ""
}
