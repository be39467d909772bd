package driven

import "context"

// Reranker scores a (query, passage) pair jointly for higher-precision
// relevance than independent embeddings. This is an optional service -
// when nil, the pipeline returns the fused order unchanged.
//
// Implementations wrap an external cross-encoder and must surface
// provider failures as *domain.BackendError; the pipeline then keeps the
// fused ranking instead of failing the query.
type Reranker interface {
	// Score returns the pairwise relevance of passage for query.
	Score(ctx context.Context, query, passage string) (float64, error)

	// ModelName returns the scorer's model identifier for logging.
	ModelName() string
}
