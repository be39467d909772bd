package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent retrieval-core failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates a document with the same ID was already
	// ingested. Documents are immutable; re-adding is a caller bug.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrInvalidArgument indicates bad caller input, such as a
	// non-positive result count. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidConfiguration indicates bad chunking or index parameters.
	// Surfaced at setup time, never at query time.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRetrievalUnavailable indicates both the lexical and the vector
	// backend failed for a query. The caller may retry later.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
)

// BackendError reports a failed or timed-out call to an external
// retrieval backend (vector index or reranker). It is recoverable: the
// pipeline degrades to the remaining healthy backend and flags the
// response instead of failing the query.
type BackendError struct {
	// Backend names the failing collaborator, e.g. "vector" or "reranker".
	Backend string

	// Op is the operation that failed, e.g. "search" or "score".
	Op string

	// Err is the underlying provider error.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// DataIntegrityError reports a chunk whose document reference cannot be
// resolved in the document store. It indicates a desynchronized index and
// fails the affected query; it is never silently dropped.
type DataIntegrityError struct {
	// ChunkID is the dangling chunk.
	ChunkID string

	// DocumentID is the missing parent document. Empty when the chunk
	// record itself is missing from the store.
	DocumentID string
}

// Error implements the error interface.
func (e *DataIntegrityError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("data integrity: chunk %q missing from document store", e.ChunkID)
	}
	return fmt.Sprintf("data integrity: chunk %q references missing document %q", e.ChunkID, e.DocumentID)
}
