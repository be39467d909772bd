package driven

import "context"

// VectorIndex provides semantic similarity search operations. The
// embedding computation and the index lifecycle are external concerns;
// adapters only shape provider responses into this contract and surface
// provider failures as *domain.BackendError so the pipeline can degrade.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the topN nearest chunks to the query vector,
	// descending by similarity.
	Search(ctx context.Context, query []float32, topN int) ([]VectorHit, error)
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
