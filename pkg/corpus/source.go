// Package corpus locates, loads and merges persona documents from
// layered sources (directories and packed bundle files).
package corpus

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
)

// Source is a named provider of persona documents. Sources are merged
// by the Resolver in priority order.
type Source interface {
	// Name identifies the source in provenance fields and logs.
	Name() string
	// Load parses every document the source holds, in a stable order.
	Load() ([]persona.Persona, error)
	// Paths returns the filesystem roots backing the source, for watch
	// mode. Empty for non-filesystem sources.
	Paths() []string
}

// DirSource loads persona documents from a directory tree. It accepts
// both flat files (<id>.md) and per-persona directories (<id>/PERSONA.md).
type DirSource struct {
	name string
	root string
}

// NewDirSource returns a source reading from root. The source name is
// used for provenance on every persona it yields.
func NewDirSource(name, root string) *DirSource {
	return &DirSource{name: name, root: root}
}

func (s *DirSource) Name() string    { return s.name }
func (s *DirSource) Paths() []string { return []string{s.root} }

// Load walks the source directory and parses every persona document.
// Documents come back sorted by path so repeated loads are stable.
func (s *DirSource) Load() ([]persona.Persona, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(errors.CodeStoreError, "stat corpus root", err).
			WithContext("source", s.name).
			WithContext("root", s.root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.CodeInvalidInput, "corpus root is not a directory", nil).
			WithContext("source", s.name).
			WithContext("root", s.root)
	}

	var paths []string
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if isPersonaFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "walk corpus root", err).
			WithContext("source", s.name).
			WithContext("root", s.root)
	}
	sort.Strings(paths)

	var out []persona.Persona
	for _, path := range paths {
		docs, err := persona.ParseFile(path, s.name)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}

func isPersonaFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.EqualFold(base, "PERSONA.md") {
		return true
	}
	return strings.HasSuffix(base, ".md") && !strings.EqualFold(base, "README.md")
}

// BundleSource loads persona documents from a single packed file whose
// segments are joined by separator tokens.
type BundleSource struct {
	name string
	path string
}

// NewBundleSource returns a source reading a packed bundle file.
func NewBundleSource(name, path string) *BundleSource {
	return &BundleSource{name: name, path: path}
}

func (s *BundleSource) Name() string    { return s.name }
func (s *BundleSource) Paths() []string { return []string{s.path} }

func (s *BundleSource) Load() ([]persona.Persona, error) {
	docs, err := persona.ParseFile(s.path, s.name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return docs, nil
}
