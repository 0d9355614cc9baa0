// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/registry"
)

// packedSeparator is the token used to join documents in packed files.
const packedSeparator = "<|RELATED_DOC_SEP-fixture|>"

// Doc builds a persona document for tests. The zero-value sections are
// omitted from the rendered Markdown, so a minimal valid doc needs only
// a name and a description.
type Doc struct {
	name        string
	description string
	tools       []string
	model       string
	color       string
	metadata    map[string]string
	body        string
	delegations [][2]string
	outputBody  string
}

// NewDoc starts a document builder for the given persona name.
func NewDoc(name string) *Doc {
	return &Doc{
		name:        name,
		description: fmt.Sprintf("Use this agent for %s tasks.", name),
		body:        fmt.Sprintf("You are the %s persona.", name),
	}
}

// WithDescription replaces the generated description.
func (d *Doc) WithDescription(desc string) *Doc {
	d.description = desc
	return d
}

// WithExample appends a trigger example block to the description.
func (d *Doc) WithExample(context, user, assistant string) *Doc {
	d.description += fmt.Sprintf(
		" <example>Context: %s user: %q assistant: %q</example>", context, user, assistant)
	return d
}

// WithTools sets the tool allowlist.
func (d *Doc) WithTools(tools ...string) *Doc {
	d.tools = tools
	return d
}

// WithModel sets the model field.
func (d *Doc) WithModel(model string) *Doc {
	d.model = model
	return d
}

// WithColor sets the color field.
func (d *Doc) WithColor(color string) *Doc {
	d.color = color
	return d
}

// WithMetadata adds a metadata entry.
func (d *Doc) WithMetadata(key, value string) *Doc {
	if d.metadata == nil {
		d.metadata = make(map[string]string)
	}
	d.metadata[key] = value
	return d
}

// WithBody replaces the generated body.
func (d *Doc) WithBody(body string) *Doc {
	d.body = body
	return d
}

// WithDelegation appends a row to the delegation table.
func (d *Doc) WithDelegation(trigger, target string) *Doc {
	d.delegations = append(d.delegations, [2]string{trigger, target})
	return d
}

// WithOutputFormat adds an output-format section with the given body.
func (d *Doc) WithOutputFormat(body string) *Doc {
	d.outputBody = body
	return d
}

// Markdown renders the document.
func (d *Doc) Markdown() string {
	var sb strings.Builder
	sb.WriteString("---\n")
	if d.name != "" {
		fmt.Fprintf(&sb, "name: %s\n", d.name)
	}
	if d.description != "" {
		fmt.Fprintf(&sb, "description: %s\n", yamlQuote(d.description))
	}
	if len(d.tools) > 0 {
		fmt.Fprintf(&sb, "tools: %s\n", strings.Join(d.tools, ", "))
	}
	if d.model != "" {
		fmt.Fprintf(&sb, "model: %s\n", d.model)
	}
	if d.color != "" {
		fmt.Fprintf(&sb, "color: %s\n", d.color)
	}
	if len(d.metadata) > 0 {
		sb.WriteString("metadata:\n")
		for key, value := range d.metadata {
			fmt.Fprintf(&sb, "  %s: %s\n", key, yamlQuote(value))
		}
	}
	sb.WriteString("---\n\n")
	sb.WriteString(d.body)
	sb.WriteString("\n")

	if len(d.delegations) > 0 {
		sb.WriteString("\n## Delegation\n\n| Trigger | Target |\n|---------|--------|\n")
		for _, row := range d.delegations {
			fmt.Fprintf(&sb, "| %s | `%s` |\n", row[0], row[1])
		}
	}
	if d.outputBody != "" {
		sb.WriteString("\n## Output Format\n\n")
		sb.WriteString(d.outputBody)
		sb.WriteString("\n")
	}
	return sb.String()
}

func yamlQuote(value string) string {
	if strings.ContainsAny(value, ":#{}[]\"'\n") {
		return fmt.Sprintf("%q", value)
	}
	return value
}

// Corpus is a temporary on-disk persona corpus.
type Corpus struct {
	t   *testing.T
	dir string
}

// NewCorpus creates a corpus rooted in a test temp dir.
func NewCorpus(t *testing.T) *Corpus {
	t.Helper()
	return &Corpus{t: t, dir: t.TempDir()}
}

// Dir returns the corpus root.
func (c *Corpus) Dir() string { return c.dir }

// WriteDoc renders the doc to <name>.md and returns its path.
func (c *Corpus) WriteDoc(doc *Doc) string {
	return c.WriteRaw(doc.name+".md", doc.Markdown())
}

// WriteRaw writes arbitrary content under the corpus root. Parent
// directories in filename are created.
func (c *Corpus) WriteRaw(filename, content string) string {
	c.t.Helper()
	path := filepath.Join(c.dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		c.t.Fatalf("mkdir for %s: %v", filename, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		c.t.Fatalf("write %s: %v", filename, err)
	}
	return path
}

// WritePacked joins the docs with separator tokens into one file.
func (c *Corpus) WritePacked(filename string, docs ...*Doc) string {
	c.t.Helper()
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.Markdown()
	}
	return c.WriteRaw(filename, strings.Join(parts, "\n"+packedSeparator+"\n"))
}

// Remove deletes a previously written file, for reload tests.
func (c *Corpus) Remove(filename string) {
	c.t.Helper()
	if err := os.Remove(filepath.Join(c.dir, filename)); err != nil {
		c.t.Fatalf("remove %s: %v", filename, err)
	}
}

// Source returns the corpus as a named dir source.
func (c *Corpus) Source(name string) corpus.Source {
	return corpus.NewDirSource(name, c.dir)
}

// Resolver returns a single-source resolver over the corpus.
func (c *Corpus) Resolver(opts ...corpus.ResolverOption) *corpus.Resolver {
	return corpus.NewResolver([]corpus.Source{c.Source("test")}, opts...)
}

// Store returns a loaded registry store over the corpus, failing the
// test when the initial load fails.
func (c *Corpus) Store(opts ...registry.StoreOption) *registry.Store {
	c.t.Helper()
	store := registry.NewStore(c.Resolver(), opts...)
	if err := store.Load(context.Background()); err != nil {
		c.t.Fatalf("corpus load: %v", err)
	}
	return store
}
