package driven

import (
	"context"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// DocumentStore owns the corpus: immutable documents plus the chunks
// derived from them. Implementations must support concurrent readers.
type DocumentStore interface {
	// Add stores a new document. It fails with domain.ErrDuplicateID if a
	// document with the same ID was already added, and with
	// domain.ErrInvalidArgument for an empty ID.
	Add(ctx context.Context, doc domain.Document) error

	// Get retrieves a document by ID. It fails with domain.ErrNotFound if
	// the document is absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all documents in insertion order. The order is stable
	// across calls.
	List(ctx context.Context) ([]domain.Document, error)

	// SaveChunks stores the chunks derived from one document, replacing
	// any chunks previously saved for that document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID. It fails with domain.ErrNotFound
	// if the chunk is absent.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks returns the chunks of a document in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}
