package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Document is an immutable source document in the corpus.
// Documents are created at ingestion and never mutated afterwards.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Text is the full text content of the document.
	Text string

	// Metadata contains scalar key-value pairs supplied by the loader.
	Metadata map[string]string
}

// Chunk is a bounded-length passage derived from exactly one document.
// Chunks are the unit of retrieval; they hold a weak reference to their
// parent document via DocumentID.
type Chunk struct {
	// ID is the deterministic chunk identifier, derived from the parent
	// document ID and the chunk's position. See ChunkID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the passage content.
	Text string

	// TokenCount is the number of tokens in Text.
	TokenCount int

	// Position is the 0-based sequence index within the document.
	Position int
}

// chunkIDSeparator joins the document ID and the chunk sequence marker.
const chunkIDSeparator = "::chunk_"

// ChunkID builds the deterministic identifier for the chunk at the given
// position within a document. Re-chunking the same document always yields
// the same IDs.
func ChunkID(documentID string, position int) string {
	return documentID + chunkIDSeparator + strconv.Itoa(position)
}

// ParseChunkID splits a chunk identifier into its document ID and position.
func ParseChunkID(chunkID string) (documentID string, position int, err error) {
	idx := strings.LastIndex(chunkID, chunkIDSeparator)
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: malformed chunk id %q", ErrInvalidArgument, chunkID)
	}
	pos, err := strconv.Atoi(chunkID[idx+len(chunkIDSeparator):])
	if err != nil {
		return "", 0, fmt.Errorf("%w: malformed chunk id %q", ErrInvalidArgument, chunkID)
	}
	return chunkID[:idx], pos, nil
}
