// Package registry holds the in-memory view of a resolved persona
// corpus: an immutable snapshot swapped atomically on reload.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
)

// Edge is a delegation edge in the corpus graph.
type Edge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Trigger string `json:"trigger"`
}

// Registry is an immutable snapshot of a resolved corpus. Readers get
// a consistent view for the lifetime of their reference; reloads build
// a fresh snapshot and swap it in the Store.
type Registry struct {
	personas    map[string]persona.Persona
	ids         []string
	byTool      map[string][]string
	edges       []Edge
	fingerprint string
}

// New builds a snapshot from resolved personas. Duplicate ids are an
// assembly error; the resolver is expected to have merged them away.
func New(personas []persona.Persona) (*Registry, error) {
	r := &Registry{
		personas: make(map[string]persona.Persona, len(personas)),
		byTool:   make(map[string][]string),
	}
	for _, p := range personas {
		if _, exists := r.personas[p.Name]; exists {
			return nil, errors.New(errors.CodeDuplicatePersona,
				"duplicate persona id in snapshot", nil).
				WithContext("persona", p.Name).
				WithContext("path", p.Path)
		}
		r.personas[p.Name] = p
		r.ids = append(r.ids, p.Name)
		for _, tool := range p.Tools {
			r.byTool[tool] = append(r.byTool[tool], p.Name)
		}
		for _, rule := range p.Delegations {
			r.edges = append(r.edges, Edge{From: p.Name, To: rule.Target, Trigger: rule.Trigger})
		}
	}
	sort.Strings(r.ids)
	for tool := range r.byTool {
		sort.Strings(r.byTool[tool])
	}
	r.fingerprint = corpusFingerprint(r.ids, r.personas)
	return r, nil
}

// Lookup returns the persona with the given id.
func (r *Registry) Lookup(id string) (persona.Persona, error) {
	p, ok := r.personas[id]
	if !ok {
		return persona.Persona{}, errors.New(errors.CodeNotFound, "persona not found", nil).
			WithContext("persona", id)
	}
	return p, nil
}

// List returns every persona sorted by id.
func (r *Registry) List() []persona.Persona {
	out := make([]persona.Persona, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.personas[id])
	}
	return out
}

// IDs returns the sorted persona ids.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// ByTool returns the ids of personas whose allowlist names the tool.
// Personas with a nil allowlist inherit every tool and are not listed.
func (r *Registry) ByTool(tool string) []string {
	ids := r.byTool[tool]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Edges returns the delegation edge list in persona order.
func (r *Registry) Edges() []Edge {
	out := make([]Edge, len(r.edges))
	copy(out, r.edges)
	return out
}

// Len returns the number of personas in the snapshot.
func (r *Registry) Len() int { return len(r.ids) }

// Fingerprint is a corpus-level hash: stable across reloads that do not
// change any document.
func (r *Registry) Fingerprint() string { return r.fingerprint }

func corpusFingerprint(ids []string, personas map[string]persona.Persona) string {
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
		h.Write([]byte(personas[id].Fingerprint))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
