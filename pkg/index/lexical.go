// SPDX-License-Identifier: Apache-2.0

package index

import (
	"context"
	"sort"
	"strings"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/registry"
	"github.com/jllopis/ethos/pkg/resilience"
)

// Suggester answers "which persona fits this task" queries.
type Suggester interface {
	Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error)
}

// Lexical scores personas by token overlap between the task text and
// the persona name, summary, and description. It needs no embedder and
// no vector store, so it keeps suggestions available when the index
// backend is down.
type Lexical struct {
	current func() *registry.Registry
}

// NewLexical builds a lexical suggester over a registry snapshot
// accessor, typically (*registry.Store).Current.
func NewLexical(current func() *registry.Registry) *Lexical {
	return &Lexical{current: current}
}

// Suggest implements Suggester.
func (l *Lexical) Suggest(_ context.Context, text string, limit int) ([]Suggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.CodeInvalidInput, "suggest text is empty", nil)
	}
	if limit <= 0 {
		limit = 5
	}

	query := tokenize(text)
	if len(query) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "suggest text has no usable tokens", nil)
	}

	reg := l.current()
	if reg == nil {
		return nil, errors.New(errors.CodeIndexError, "no registry snapshot loaded", nil)
	}

	var suggestions []Suggestion
	for _, p := range reg.List() {
		corpus := tokenize(p.Name + " " + p.Summary + " " + p.Description)
		overlap := 0
		for tok := range query {
			if corpus[tok] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Persona: p.Name,
			Score:   float32(overlap) / float32(len(query)),
			Summary: p.Summary,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Persona < suggestions[j].Persona
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(field) < 3 {
			continue
		}
		tokens[field] = true
	}
	return tokens
}

// Degrading serves suggestions from the vector index and falls back to
// lexical matching when the index path fails. Invalid input errors pass
// through unchanged since the fallback would reject them too.
type Degrading struct {
	primary  Suggester
	fallback Suggester
}

// NewDegrading wraps primary with fallback.
func NewDegrading(primary, fallback Suggester) *Degrading {
	return &Degrading{primary: primary, fallback: fallback}
}

// Suggest implements Suggester.
func (d *Degrading) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	return resilience.WithFallback(ctx,
		func(ctx context.Context) ([]Suggestion, error) {
			return d.primary.Suggest(ctx, text, limit)
		},
		func(ctx context.Context, primaryErr error) ([]Suggestion, error) {
			if errors.AsEthosError(primaryErr).Code == errors.CodeInvalidInput {
				return nil, primaryErr
			}
			return d.fallback.Suggest(ctx, text, limit)
		})
}
