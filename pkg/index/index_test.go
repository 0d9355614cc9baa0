package index

import (
	"context"
	"sort"
	"testing"

	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/index/mock"
	"github.com/jllopis/ethos/pkg/persona"
	"github.com/jllopis/ethos/pkg/registry"
)

// memStore is an in-memory Store doing brute-force cosine search.
type memStore struct {
	collection string
	dimension  uint64
	points     map[string]Point
	ensured    int
}

func newMemStore() *memStore {
	return &memStore{points: make(map[string]Point)}
}

func (m *memStore) EnsureCollection(_ context.Context, name string, vectorSize uint64) error {
	m.ensured++
	m.collection = name
	m.dimension = vectorSize
	return nil
}

func (m *memStore) Upsert(_ context.Context, _ string, points []Point) error {
	for _, p := range points {
		m.points[p.ID] = p
	}
	return nil
}

func (m *memStore) Search(_ context.Context, _ string, vector []float32, limit int) ([]SearchResult, error) {
	var results []SearchResult
	for _, p := range m.points {
		results = append(results, SearchResult{
			ID:      p.ID,
			Score:   dot(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *memStore) Delete(_ context.Context, _ string, ids []string) error {
	for _, id := range ids {
		delete(m.points, id)
	}
	return nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		if i < len(b) {
			sum += a[i] * b[i]
		}
	}
	return sum
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]persona.Persona{
		{Name: "code-reviewer", Description: "reviews code",
			Summary: "reviews diffs for bugs style and correctness", Fingerprint: "f1"},
		{Name: "database-tuner", Description: "tunes databases",
			Summary: "optimizes slow sql queries and database indexes", Fingerprint: "f2"},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestPointIDStable(t *testing.T) {
	if PointID("code-reviewer") != PointID("code-reviewer") {
		t.Error("point id not stable")
	}
	if PointID("a") == PointID("b") {
		t.Error("point ids collide")
	}
}

func TestSyncAndSuggest(t *testing.T) {
	store := newMemStore()
	ix := NewIndexer(store, mock.NewEmbedder(64), WithCollection("test-personas"))
	ctx := context.Background()

	n, err := ix.Sync(ctx, testRegistry(t))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 2 || len(store.points) != 2 {
		t.Fatalf("expected 2 points, got %d/%d", n, len(store.points))
	}
	if store.collection != "test-personas" || store.dimension != 64 {
		t.Errorf("collection setup: %q dim %d", store.collection, store.dimension)
	}

	suggestions, err := ix.Suggest(ctx, "my sql queries are slow", 1)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Persona != "database-tuner" {
		t.Errorf("suggest: %+v", suggestions)
	}
	if suggestions[0].Summary == "" {
		t.Error("suggestion lost summary payload")
	}
}

func TestSyncUpsertsInPlace(t *testing.T) {
	store := newMemStore()
	ix := NewIndexer(store, mock.NewEmbedder(32))
	ctx := context.Background()

	if _, err := ix.Sync(ctx, testRegistry(t)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, err := ix.Sync(ctx, testRegistry(t)); err != nil {
		t.Fatalf("resync: %v", err)
	}
	if len(store.points) != 2 {
		t.Errorf("resync should upsert in place, got %d points", len(store.points))
	}
}

func TestSuggestEmptyText(t *testing.T) {
	ix := NewIndexer(newMemStore(), mock.NewEmbedder(16))
	_, err := ix.Suggest(context.Background(), "   ", 5)
	if errors.AsEthosError(err).Code != errors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	store := newMemStore()
	ix := NewIndexer(store, mock.NewEmbedder(16))
	ctx := context.Background()
	if _, err := ix.Sync(ctx, testRegistry(t)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := ix.Remove(ctx, []string{"code-reviewer"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(store.points) != 1 {
		t.Errorf("expected 1 point after remove, got %d", len(store.points))
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := mock.NewEmbedder(32)
	a, _ := e.Embed(context.Background(), "review this code")
	b, _ := e.Embed(context.Background(), "review this code")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("mock embedder not deterministic")
		}
	}
	if len(a) != 32 {
		t.Errorf("dimension: %d", len(a))
	}
}
