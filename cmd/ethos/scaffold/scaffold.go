// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

// Package scaffold generates corpus and persona document scaffolding.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

// Options configures corpus generation.
type Options struct {
	// Name is the corpus name, written into ethos.yaml and README.md.
	Name string
}

// Archetypes lists the persona document archetypes, sorted.
func Archetypes() []string {
	names := make([]string, 0, len(archetypeTemplates))
	for name := range archetypeTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidArchetype reports whether name is a known archetype.
func ValidArchetype(name string) bool {
	_, ok := archetypeTemplates[name]
	return ok
}

// Generate creates a new persona corpus at the given directory.
func Generate(dir string, opts Options) error {
	if opts.Name == "" {
		opts.Name = filepath.Base(dir)
	}

	dirs := []string{
		"personas",
		".ethos",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	for _, f := range corpusFiles {
		if err := generateFile(dir, f, opts); err != nil {
			return fmt.Errorf("generating %s: %w", f.Path, err)
		}
		fmt.Printf("  Created: %s\n", f.Path)
	}

	return nil
}

// PersonaDoc renders a persona document for the given archetype and id.
func PersonaDoc(archetype, id string) (string, error) {
	text, ok := archetypeTemplates[archetype]
	if !ok {
		return "", fmt.Errorf("unknown archetype %q; valid options: %s",
			archetype, strings.Join(Archetypes(), ", "))
	}
	tmpl, err := template.New(archetype).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, personaData{ID: id}); err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return sb.String(), nil
}

type personaData struct {
	ID string
}

type fileSpec struct {
	Path     string
	Template string
}

var corpusFiles = []fileSpec{
	{"ethos.yaml", configTemplate},
	{".gitignore", gitignoreTemplate},
	{"README.md", readmeTemplate},
	{"personas/code-reviewer.md", sampleReviewerTemplate},
	{"personas/doc-writer.md", sampleWriterTemplate},
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"title": func(s string) string {
			words := strings.Split(s, "-")
			for i, word := range words {
				if word == "" {
					continue
				}
				words[i] = strings.ToUpper(word[:1]) + word[1:]
			}
			return strings.Join(words, " ")
		},
	}
}

func generateFile(dir string, spec fileSpec, opts Options) error {
	tmpl, err := template.New(spec.Path).Funcs(templateFuncs()).Parse(spec.Template)
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	path := filepath.Join(dir, spec.Path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return tmpl.Execute(f, opts)
}
