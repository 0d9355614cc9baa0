package lint

import (
	"fmt"
	"regexp"

	"github.com/jllopis/ethos/pkg/corpus"
)

// Injection battery: phrasing that tries to override or extract the
// hosting assistant's instructions. Persona documents describe behavior
// for an LLM, so this text would be live prompt material.
var injectionPatterns = compileAll([]string{
	`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
	`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
	`(?i)forget\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
	`(?i)override\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
	`(?i)reveal\s+your\s+(system\s+)?(prompt|instructions?)`,
	`(?i)print\s+your\s+(system\s+)?(prompt|instructions?)`,
	`(?i)do\s+anything\s+now`,
	`(?i)jailbreak`,
	`(?i)bypass\s+(safety|content|filter)`,
	`(?i)\[INST\]`,
	`(?i)<<SYS>>`,
})

// Credential battery: secret-looking material that has no business in a
// persona document.
var credentialPatterns = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`)},
	{"aws access key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"github token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{"bearer token", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]{20,}=*`)},
	{"password literal", regexp.MustCompile(`(?i)\bpassword\s*[:=]\s*["'][^"']{4,}["']`)},
	{"api key literal", regexp.MustCompile(`(?i)\bapi[_-]?key\s*[:=]\s*["'][A-Za-z0-9]{16,}["']`)},
	{"slack token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)},
	{"email address", regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		out = append(out, regexp.MustCompile(pattern))
	}
	return out
}

func (l *Linter) checkContent(res *corpus.Resolution, emit emitFunc) {
	for _, doc := range allDocuments(res) {
		text := doc.Description + "\n" + doc.Body
		for _, pattern := range injectionPatterns {
			if match := pattern.FindString(text); match != "" {
				emit(RuleInjectionPattern, doc.Name, doc.Path,
					fmt.Sprintf("prompt-injection phrasing: %q", match))
				break
			}
		}
		for _, cp := range credentialPatterns {
			if cp.pattern.MatchString(text) {
				emit(RuleCredentialMaterial, doc.Name, doc.Path,
					fmt.Sprintf("possible %s in document", cp.label))
			}
		}
	}
}
