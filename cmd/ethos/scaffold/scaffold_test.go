// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jllopis/ethos/pkg/persona"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	if err := Generate(dir, Options{Name: "team-agents"}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, path := range []string{
		"ethos.yaml",
		".gitignore",
		"README.md",
		"personas/code-reviewer.md",
		"personas/doc-writer.md",
	} {
		if _, err := os.Stat(filepath.Join(dir, path)); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}

	config, err := os.ReadFile(filepath.Join(dir, "ethos.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if want := "team-agents-personas"; !strings.Contains(string(config), want) {
		t.Errorf("config missing corpus name, want %q in:\n%s", want, config)
	}
}

func TestGenerateDefaultsNameFromDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-corpus")
	if err := Generate(dir, Options{}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatalf("read readme: %v", err)
	}
	if !strings.Contains(string(readme), "my-corpus") {
		t.Errorf("readme missing corpus name:\n%s", readme)
	}
}

func TestGeneratedSamplesParse(t *testing.T) {
	dir := t.TempDir()
	if err := Generate(dir, Options{Name: "sample"}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, name := range []string{"code-reviewer", "doc-writer"} {
		path := filepath.Join(dir, "personas", name+".md")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		parsed, err := persona.Parse(data, name+".md", "scaffold")
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if len(parsed) != 1 {
			t.Fatalf("%s: expected 1 document, got %d", name, len(parsed))
		}
		if parsed[0].Name != name {
			t.Errorf("%s: parsed name %q", name, parsed[0].Name)
		}
		if len(parsed[0].Examples) == 0 {
			t.Errorf("%s: sample should carry a trigger example", name)
		}
	}
}

func TestPersonaDocArchetypes(t *testing.T) {
	for _, archetype := range Archetypes() {
		content, err := PersonaDoc(archetype, "database-tuner")
		if err != nil {
			t.Fatalf("%s: %v", archetype, err)
		}
		parsed, err := persona.Parse([]byte(content), "database-tuner.md", "scaffold")
		if err != nil {
			t.Fatalf("%s: parse: %v", archetype, err)
		}
		if len(parsed) != 1 {
			t.Fatalf("%s: expected 1 document, got %d", archetype, len(parsed))
		}
		if parsed[0].Name != "database-tuner" {
			t.Errorf("%s: name %q", archetype, parsed[0].Name)
		}
		if len(parsed[0].Examples) == 0 {
			t.Errorf("%s: expected a trigger example", archetype)
		}
	}
}

func TestPersonaDocTitlesID(t *testing.T) {
	content, err := PersonaDoc("specialist", "database-tuner")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(content, "Database Tuner") {
		t.Errorf("body missing titled id:\n%s", content)
	}
}

func TestPersonaDocUnknownArchetype(t *testing.T) {
	if _, err := PersonaDoc("wizard", "x"); err == nil {
		t.Fatal("expected error for unknown archetype")
	}
}

func TestValidArchetype(t *testing.T) {
	if !ValidArchetype("specialist") {
		t.Error("specialist should be valid")
	}
	if ValidArchetype("wizard") {
		t.Error("wizard should not be valid")
	}
}
