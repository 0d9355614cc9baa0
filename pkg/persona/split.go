package persona

import (
	"regexp"
	"strings"
)

// Packed corpus files join several persona documents with a separator
// token on its own line, e.g. <|RELATED_DOC_SEP-a1b2c3|>. The token is
// a packaging artifact, not a protocol.
var separatorPattern = regexp.MustCompile(`^<\|RELATED_DOC_SEP-[A-Za-z0-9_-]+\|>$`)

// IsSeparator reports whether line is a packaging separator token.
func IsSeparator(line string) bool {
	return separatorPattern.MatchString(strings.TrimSpace(line))
}

// SplitDocuments splits raw file content into per-document segments.
// Separator tokens inside fenced code blocks are literal content and do
// not split. A file without separators yields a single segment.
// Empty segments are preserved so callers can flag dangling separators.
func SplitDocuments(content string) []string {
	lines := strings.Split(content, "\n")
	var segments []string
	var current []string
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && IsSeparator(line) {
			segments = append(segments, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	segments = append(segments, strings.Join(current, "\n"))
	return segments
}

// CountEmptySegments returns the number of empty segments produced by
// separator splitting; non-zero means a dangling or doubled separator.
func CountEmptySegments(content string) int {
	count := 0
	for _, segment := range SplitDocuments(content) {
		if strings.TrimSpace(segment) == "" {
			count++
		}
	}
	return count
}
