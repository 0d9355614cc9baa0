package corpus

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
)

// Pack joins persona documents into a single packed bundle. The
// separator carries a random suffix so that document content can never
// collide with it. Documents keep their raw bytes; nothing is
// re-serialized.
func Pack(docs []persona.Persona) (string, error) {
	if len(docs) == 0 {
		return "", errors.New(errors.CodeInvalidInput, "nothing to pack", nil)
	}
	suffix, err := randomSuffix()
	if err != nil {
		return "", err
	}
	separator := fmt.Sprintf("<|RELATED_DOC_SEP-%s|>", suffix)

	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n" + separator + "\n")
		}
		b.WriteString(rawDocument(doc))
	}
	b.WriteString("\n")
	return b.String(), nil
}

// PackFiles reads the given persona files and writes a packed bundle to
// outPath. Returns the number of documents packed.
func PackFiles(paths []string, outPath string) (int, error) {
	var docs []persona.Persona
	for _, path := range paths {
		parsed, err := persona.ParseFile(path, "bundle")
		if err != nil {
			return 0, err
		}
		docs = append(docs, parsed...)
	}
	packed, err := Pack(docs)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outPath, []byte(packed), 0o644); err != nil {
		return 0, errors.New(errors.CodeStoreError, "write bundle", err).
			WithContext("path", outPath)
	}
	return len(docs), nil
}

// Unpack splits a packed bundle into per-persona files under outDir,
// named <persona-name>.md. Returns the written paths in bundle order.
func Unpack(bundlePath, outDir string) ([]string, error) {
	docs, err := persona.ParseFile(bundlePath, "bundle")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.New(errors.CodeStoreError, "create output dir", err).
			WithContext("path", outDir)
	}
	var written []string
	for _, doc := range docs {
		name := strings.TrimSpace(doc.Name)
		if name == "" {
			name = fmt.Sprintf("persona-%03d", doc.Ordinal)
		}
		path := filepath.Join(outDir, name+".md")
		if err := os.WriteFile(path, []byte(rawDocument(doc)+"\n"), 0o644); err != nil {
			return written, errors.New(errors.CodeStoreError, "write persona file", err).
				WithContext("path", path)
		}
		written = append(written, path)
	}
	return written, nil
}

// rawDocument returns the document text to emit for doc. Parsed
// documents carry their source text and are emitted byte for byte, so
// pack and unpack are lossless. Personas built in memory have no raw
// text; their frontmatter is serialized through the YAML encoder so
// every scalar comes out quoted correctly.
func rawDocument(doc persona.Persona) string {
	if doc.Raw != "" {
		return doc.Raw
	}
	fm := struct {
		Name        string            `yaml:"name"`
		Description string            `yaml:"description"`
		Tools       string            `yaml:"tools,omitempty"`
		Model       string            `yaml:"model,omitempty"`
		Color       string            `yaml:"color,omitempty"`
		Metadata    map[string]string `yaml:"metadata,omitempty"`
	}{
		Name:        doc.Name,
		Description: doc.Description,
		Tools:       strings.Join(doc.Tools, ", "),
		Model:       doc.Model,
		Color:       doc.Color,
		Metadata:    doc.Metadata,
	}
	encoded, err := yaml.Marshal(fm)
	if err != nil {
		encoded = []byte("name: " + doc.Name + "\n")
	}
	return "---\n" + string(encoded) + "---\n\n" + doc.Body
}

func randomSuffix() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.New(errors.CodeInternal, "generate separator suffix", err)
	}
	return hex.EncodeToString(buf), nil
}
