package driven

import (
	"context"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// LexicalIndex provides term-frequency keyword search over chunks.
// Backed by an in-process BM25 inverted index.
type LexicalIndex interface {
	// Index builds the inverted index over the given chunks, fully
	// replacing any previous index. Concurrent readers keep seeing the
	// old index until the swap completes.
	Index(ctx context.Context, chunks []domain.Chunk) error

	// Search performs a keyword search and returns up to topN hits,
	// descending by score with ties broken by chunk ID ascending.
	// topN <= 0 fails with domain.ErrInvalidArgument. An empty index
	// returns an empty result, not an error.
	Search(ctx context.Context, query string, topN int) ([]LexicalHit, error)
}

// LexicalHit is a keyword search result.
type LexicalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the BM25 relevance score (unbounded).
	Score float64
}
