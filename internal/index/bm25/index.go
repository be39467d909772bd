// Package bm25 implements the lexical index port with an in-process
// BM25 inverted index.
package bm25

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/custodia-labs/retrieva/internal/chunker"
	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/core/ports/driven"
	"github.com/custodia-labs/retrieva/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// DefaultK1 is the default BM25 term-frequency saturation parameter.
const DefaultK1 = 1.5

// DefaultB is the default BM25 length-normalization parameter.
const DefaultB = 0.75

// snapshot is one fully built, immutable index generation. A rebuild
// assembles a fresh snapshot and swaps it in atomically, so concurrent
// readers never observe a partially built index and never block.
type snapshot struct {
	// postings maps term -> chunk ID -> term frequency.
	postings map[string]map[string]int

	// chunkLen maps chunk ID -> token count of the chunk.
	chunkLen map[string]int

	// avgLen is the mean chunk length across the corpus.
	avgLen float64
}

// Index is a BM25 inverted index over chunks. It follows single-writer,
// multiple-reader discipline: Search reads the current snapshot, Index
// replaces it wholesale.
type Index struct {
	k1   float64
	b    float64
	snap atomic.Pointer[snapshot]
}

// Option configures the index.
type Option func(*Index)

// WithK1 sets the term-frequency saturation parameter.
func WithK1(k1 float64) Option {
	return func(idx *Index) {
		idx.k1 = k1
	}
}

// WithB sets the length-normalization parameter.
func WithB(b float64) Option {
	return func(idx *Index) {
		idx.b = b
	}
}

// New creates an empty BM25 index. k1 must be positive and b must be in
// [0, 1]; violating either fails with domain.ErrInvalidConfiguration.
func New(opts ...Option) (*Index, error) {
	idx := &Index{k1: DefaultK1, b: DefaultB}

	for _, opt := range opts {
		opt(idx)
	}

	if idx.k1 <= 0 {
		return nil, fmt.Errorf("%w: bm25 k1 must be positive, got %g", domain.ErrInvalidConfiguration, idx.k1)
	}
	if idx.b < 0 || idx.b > 1 {
		return nil, fmt.Errorf("%w: bm25 b must be in [0, 1], got %g", domain.ErrInvalidConfiguration, idx.b)
	}

	return idx, nil
}

// Index builds a fresh inverted index over the given chunks and swaps it
// in, fully replacing the previous index.
func (idx *Index) Index(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	next := &snapshot{
		postings: make(map[string]map[string]int),
		chunkLen: make(map[string]int, len(chunks)),
	}

	var totalLen int
	for _, ch := range chunks {
		terms := chunker.Terms(ch.Text)
		next.chunkLen[ch.ID] = len(terms)
		totalLen += len(terms)

		for _, term := range terms {
			byChunk, ok := next.postings[term]
			if !ok {
				byChunk = make(map[string]int)
				next.postings[term] = byChunk
			}
			byChunk[ch.ID]++
		}
	}
	if len(next.chunkLen) > 0 {
		next.avgLen = float64(totalLen) / float64(len(next.chunkLen))
	}

	idx.snap.Store(next)
	logger.Debug("BM25 index rebuilt: %d chunks, %d terms", len(next.chunkLen), len(next.postings))
	return nil
}

// Search scores all chunks matching the query terms and returns the topN
// best, descending by score with ties broken by chunk ID ascending.
func (idx *Index) Search(ctx context.Context, query string, topN int) ([]driven.LexicalHit, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top n must be positive, got %d", domain.ErrInvalidArgument, topN)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := idx.snap.Load()
	if snap == nil || len(snap.chunkLen) == 0 {
		return []driven.LexicalHit{}, nil
	}

	total := float64(len(snap.chunkLen))
	scores := make(map[string]float64)

	for _, term := range chunker.Terms(query) {
		byChunk, ok := snap.postings[term]
		if !ok {
			continue
		}

		df := float64(len(byChunk))
		idf := math.Log(1 + (total-df+0.5)/(df+0.5))

		for chunkID, tf := range byChunk {
			norm := 1 - idx.b + idx.b*float64(snap.chunkLen[chunkID])/snap.avgLen
			freq := float64(tf)
			scores[chunkID] += idf * freq * (idx.k1 + 1) / (freq + idx.k1*norm)
		}
	}

	hits := make([]driven.LexicalHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, driven.LexicalHit{ChunkID: chunkID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > topN {
		hits = hits[:topN]
	}
	return hits, nil
}
