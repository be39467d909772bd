// Package chunker splits documents into overlapping token-bounded
// passages, the unit of retrieval.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// DefaultMaxTokens is the default target token count per chunk.
const DefaultMaxTokens = 200

// DefaultOverlapTokens is the default token overlap between consecutive
// chunks of the same document.
const DefaultOverlapTokens = 50

// Chunker splits document text into overlapping chunks under a
// token-count policy. Chunking is deterministic: the same document with
// the same parameters always yields identical chunk IDs and text.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the target token count per chunk.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		c.maxTokens = n
	}
}

// WithOverlapTokens sets the token overlap between consecutive chunks.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		c.overlapTokens = n
	}
}

// New creates a chunker, validating the policy up front: maxTokens must
// be positive and overlapTokens must be in [0, maxTokens).
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive, got %d", domain.ErrInvalidConfiguration, c.maxTokens)
	}
	if c.overlapTokens < 0 || c.overlapTokens >= c.maxTokens {
		return nil, fmt.Errorf("%w: overlap tokens must be in [0, %d), got %d",
			domain.ErrInvalidConfiguration, c.maxTokens, c.overlapTokens)
	}

	return c, nil
}

// Chunk splits the document into an ordered sequence of chunks. Each
// chunk holds at most maxTokens tokens and consecutive chunks share
// overlapTokens tokens, except the final chunk which may be shorter.
// Chunk boundaries never fall inside a token. A document shorter than
// maxTokens yields exactly one chunk containing the entire text; a
// document with no tokens yields no chunks.
func (c *Chunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	tokens := Tokenize(doc.Text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := c.maxTokens - c.overlapTokens
	estimated := len(tokens)/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	for start, position := 0, 0; ; start, position = start+step, position+1 {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Text:       doc.Text[tokens[start].Start:tokens[end-1].End],
			TokenCount: end - start,
			Position:   position,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}
