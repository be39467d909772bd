// Package hash provides a deterministic feature-hashing embedder. It maps
// term frequencies into a fixed-size vector via FNV hashing, giving the
// vector path a fully offline backend. Hosted embedding models plug in
// through the same port when higher quality is needed.
package hash

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/custodia-labs/retrieva/internal/chunker"
	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 256

// Embedder hashes term frequencies into a fixed-size, L2-normalised
// vector. Identical text always produces an identical vector.
type Embedder struct {
	dimensions int
}

// New creates a feature-hashing embedder with the given vector size.
func New(dimensions int) (*Embedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive, got %d",
			domain.ErrInvalidConfiguration, dimensions)
	}
	return &Embedder{dimensions: dimensions}, nil
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, term := range chunker.Terms(text) {
		bucket, sign := e.hash(term)
		vec[bucket] += sign
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
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// hash maps a term to a bucket and a sign. The sign bit reduces
// collision bias in the hashed feature space.
func (e *Embedder) hash(term string) (int, float32) {
	h := fnv.New64a()
	h.Write([]byte(term))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimensions))
	if sum&(1<<63) != 0 {
		return bucket, -1
	}
	return bucket, 1
}
