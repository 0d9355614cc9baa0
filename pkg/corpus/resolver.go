package corpus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/persona"
)

// Shadowed records a persona definition that lost to an earlier source
// or an earlier document with the same id.
type Shadowed struct {
	Name       string
	Path       string
	SourceName string
	// WinnerSource is the source whose definition took precedence.
	WinnerSource string
}

// Resolution is the merged result of loading every source.
type Resolution struct {
	// Personas holds the winning definition per id, in source order.
	Personas []persona.Persona
	// Shadowed lists definitions displaced by first-id-wins merging.
	Shadowed []Shadowed
	// Invalid lists documents that failed Validate together with the
	// validation error, kept so lint can report them.
	Invalid []InvalidDocument
}

// InvalidDocument pairs a parsed but invalid persona with its error.
type InvalidDocument struct {
	Persona persona.Persona
	Err     error
}

// Resolver merges persona documents from sources in priority order.
// The first source to define an id wins; later definitions are recorded
// as shadowed.
type Resolver struct {
	sources []Source
	strict  bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStrict makes duplicate ids within the same source a hard error
// instead of a shadowed entry.
func WithStrict() ResolverOption {
	return func(r *Resolver) { r.strict = true }
}

// NewResolver returns a resolver over the given sources, highest
// priority first.
func NewResolver(sources []Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{sources: sources}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sources returns the configured sources in priority order.
func (r *Resolver) Sources() []Source { return r.sources }

// Resolve loads every source and merges the documents. Parse failures
// abort the resolution; validation failures are collected in
// Resolution.Invalid so lint can surface them.
func (r *Resolver) Resolve() (*Resolution, error) {
	res := &Resolution{}
	winner := make(map[string]string) // id -> winning source name

	for _, src := range r.sources {
		docs, err := src.Load()
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if err := doc.Validate(); err != nil {
				res.Invalid = append(res.Invalid, InvalidDocument{Persona: doc, Err: err})
				continue
			}
			name := strings.TrimSpace(doc.Name)
			if prev, taken := winner[name]; taken {
				if r.strict && prev == src.Name() {
					return nil, errors.New(errors.CodeDuplicatePersona,
						fmt.Sprintf("persona %q defined twice in source %q", name, prev), nil).
						WithContext("path", doc.Path)
				}
				res.Shadowed = append(res.Shadowed, Shadowed{
					Name:         name,
					Path:         doc.Path,
					SourceName:   src.Name(),
					WinnerSource: prev,
				})
				continue
			}
			winner[name] = src.Name()
			res.Personas = append(res.Personas, doc)
		}
	}

	sort.SliceStable(res.Personas, func(i, j int) bool {
		return res.Personas[i].Name < res.Personas[j].Name
	})
	return res, nil
}
