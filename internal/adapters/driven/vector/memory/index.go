// Package memory provides a brute-force in-memory implementation of the
// vector index port. It is the reference backend: external providers
// (managed vector databases, ANN services) plug in through the same port
// and are expected to behave identically at this contract.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores embeddings in memory and searches them by exact cosine
// similarity.
type Index struct {
	mu         sync.RWMutex
	embeddings map[string][]float32
}

// NewIndex creates an empty in-memory vector index.
func NewIndex() *Index {
	return &Index{embeddings: make(map[string][]float32)}
}

// Add inserts a vector for the given chunk ID, replacing any previous
// vector for that chunk.
func (idx *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if chunkID == "" {
		return fmt.Errorf("%w: chunk id is empty", domain.ErrInvalidArgument)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for chunk %q", domain.ErrInvalidArgument, chunkID)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.embeddings[chunkID] = vec
	return nil
}

// Search returns the topN chunks nearest to the query vector, descending
// by cosine similarity with ties broken by chunk ID ascending.
func (idx *Index) Search(ctx context.Context, query []float32, topN int) ([]driven.VectorHit, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top n must be positive, got %d", domain.ErrInvalidArgument, topN)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(idx.embeddings))
	for chunkID, vec := range idx.embeddings {
		if len(vec) != len(query) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    chunkID,
			Similarity: cosine(query, vec),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > topN {
		hits = hits[:topN]
	}
	return hits, nil
}

// cosine computes the cosine similarity of two equal-length vectors.
// Zero vectors score 0.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
