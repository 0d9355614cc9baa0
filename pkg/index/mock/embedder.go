// Package mock provides a deterministic embedder for tests and
// offline use. Vectors are derived from token hashes, so similar texts
// share components without any model behind them.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder hashes tokens into a fixed-size vector.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a mock embedder. Dimension defaults to 64 when
// non-positive.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &Embedder{dimension: dimension}
}

// Embed maps each token to a vector component by hash and normalizes
// the result. Deterministic for a given input.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		vec[sum%uint32(e.dimension)] += 1.0
		// A second component keeps distinct token sets from colliding
		// into identical vectors too easily.
		vec[(sum>>8)%uint32(e.dimension)] += 0.5
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	} else {
		vec[0] = 1
	}
	return vec, nil
}
