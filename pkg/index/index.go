// Package index maintains a vector similarity index over persona
// summaries and answers "which persona fits this task" queries.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/registry"
	"github.com/jllopis/ethos/pkg/resilience"
)

// Embedder converts text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Point is one indexed persona.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchResult is a scored match from the vector store.
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Store is the vector database behind the index.
type Store interface {
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error)
	Delete(ctx context.Context, collection string, ids []string) error
}

// Suggestion is a ranked persona match for a task description.
type Suggestion struct {
	Persona string  `json:"persona"`
	Score   float32 `json:"score"`
	Summary string  `json:"summary,omitempty"`
}

// Point ids are UUIDv5 of the persona name in a fixed namespace, so
// re-indexing a persona upserts its point in place.
var pointNamespace = uuid.MustParse("9a7c1d52-0b3e-4f6a-8d2c-5e1f7b9a3c48")

// PointID returns the stable vector point id for a persona.
func PointID(name string) string {
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}

// Indexer drives embedding and storage for a registry snapshot.
type Indexer struct {
	store      Store
	embedder   Embedder
	collection string
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
	timeout    time.Duration
	logger     *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithCollection overrides the collection name (default "ethos-personas").
func WithCollection(name string) IndexerOption {
	return func(ix *Indexer) { ix.collection = name }
}

// WithRetry overrides the retry policy for embedder and store calls.
func WithRetry(rc resilience.RetryConfig) IndexerOption {
	return func(ix *Indexer) { ix.retry = rc }
}

// WithTimeout bounds each embed or store operation.
func WithTimeout(d time.Duration) IndexerOption {
	return func(ix *Indexer) { ix.timeout = d }
}

// WithBreaker guards vector store calls with a circuit breaker so a
// down store fails fast instead of burning the retry budget per call.
func WithBreaker(cb *resilience.CircuitBreaker) IndexerOption {
	return func(ix *Indexer) { ix.breaker = cb }
}

// WithIndexerLogger sets the logger.
func WithIndexerLogger(logger *slog.Logger) IndexerOption {
	return func(ix *Indexer) { ix.logger = logger }
}

// NewIndexer wires an embedder to a vector store.
func NewIndexer(store Store, embedder Embedder, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:      store,
		embedder:   embedder,
		collection: "ethos-personas",
		retry:      resilience.DefaultRetryConfig(),
		timeout:    30 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Collection returns the collection name in use.
func (ix *Indexer) Collection() string { return ix.collection }

// Sync embeds every persona summary and upserts the points. The vector
// dimension is probed from the first embedding so the collection can be
// created before any point lands.
func (ix *Indexer) Sync(ctx context.Context, reg *registry.Registry) (int, error) {
	personas := reg.List()
	if len(personas) == 0 {
		return 0, nil
	}

	points := make([]Point, 0, len(personas))
	for _, p := range personas {
		text := embeddingText(p.Name, p.Summary, p.Description)
		vector, err := ix.embed(ctx, text)
		if err != nil {
			return 0, errors.AsEthosError(err).WithContext("persona", p.Name)
		}
		points = append(points, Point{
			ID:     PointID(p.Name),
			Vector: vector,
			Payload: map[string]any{
				"persona":     p.Name,
				"summary":     p.Summary,
				"description": p.Description,
				"tools":       strings.Join(p.Tools, ","),
				"source":      p.SourceName,
			},
		})
	}

	dimension := uint64(len(points[0].Vector))
	err := ix.storeDo(ctx, func(opCtx context.Context) error {
		return ix.store.EnsureCollection(opCtx, ix.collection, dimension)
	})
	if err != nil {
		return 0, errors.New(errors.CodeIndexError, "ensure collection", err).
			WithContext("collection", ix.collection)
	}

	err = ix.storeDo(ctx, func(opCtx context.Context) error {
		return ix.store.Upsert(opCtx, ix.collection, points)
	})
	if err != nil {
		return 0, errors.New(errors.CodeIndexError, "upsert points", err).
			WithContext("collection", ix.collection)
	}

	ix.logger.Info("index synced",
		slog.Int("points", len(points)),
		slog.Uint64("dimension", dimension),
		slog.String("collection", ix.collection))
	return len(points), nil
}

// Suggest returns the personas whose summaries sit closest to the task
// text, best first.
func (ix *Indexer) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.CodeInvalidInput, "suggest text is empty", nil)
	}
	if limit <= 0 {
		limit = 5
	}

	vector, err := ix.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	err = ix.storeDo(ctx, func(opCtx context.Context) error {
		var searchErr error
		results, searchErr = ix.store.Search(opCtx, ix.collection, vector, limit)
		return searchErr
	})
	if err != nil {
		return nil, errors.New(errors.CodeIndexError, "search points", err).
			WithContext("collection", ix.collection)
	}

	suggestions := make([]Suggestion, 0, len(results))
	for _, r := range results {
		s := Suggestion{Score: r.Score}
		if name, ok := r.Payload["persona"].(string); ok {
			s.Persona = name
		}
		if summary, ok := r.Payload["summary"].(string); ok {
			s.Summary = summary
		}
		if s.Persona == "" {
			s.Persona = r.ID
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}

// Remove deletes the points for the given persona names.
func (ix *Indexer) Remove(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	ids := make([]string, len(names))
	for i, name := range names {
		ids[i] = PointID(name)
	}
	err := ix.storeDo(ctx, func(opCtx context.Context) error {
		return ix.store.Delete(opCtx, ix.collection, ids)
	})
	if err != nil {
		return errors.New(errors.CodeIndexError, "delete points", err).
			WithContext("collection", ix.collection)
	}
	return nil
}

// storeDo runs one store operation under the retry policy, per-attempt
// timeout, and the circuit breaker when one is configured.
func (ix *Indexer) storeDo(ctx context.Context, fn func(context.Context) error) error {
	return ix.retry.Do(ctx, func() error {
		opCtx, cancel := context.WithTimeout(ctx, ix.timeout)
		defer cancel()
		if ix.breaker != nil {
			return ix.breaker.Call(opCtx, func() error { return fn(opCtx) })
		}
		return fn(opCtx)
	})
}

func (ix *Indexer) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := ix.retry.Do(ctx, func() error {
		opCtx, cancel := context.WithTimeout(ctx, ix.timeout)
		defer cancel()
		var embedErr error
		vector, embedErr = ix.embedder.Embed(opCtx, text)
		return embedErr
	})
	if err != nil {
		return nil, errors.New(errors.CodeEmbedderError, "embed text", err)
	}
	if len(vector) == 0 {
		return nil, errors.New(errors.CodeEmbedderError, "embedder returned empty vector", nil)
	}
	return vector, nil
}

func embeddingText(name, summary, description string) string {
	if summary != "" {
		return fmt.Sprintf("%s: %s", name, summary)
	}
	return fmt.Sprintf("%s: %s", name, description)
}
