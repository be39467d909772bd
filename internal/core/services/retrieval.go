package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/retrieva/internal/chunker"
	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/core/ports/driven"
	"github.com/custodia-labs/retrieva/internal/core/ports/driving"
	"github.com/custodia-labs/retrieva/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// queryState tracks a query's progress through the pipeline for logging.
type queryState string

const (
	stateReceived      queryState = "received"
	stateLexicalSearch queryState = "lexical_search"
	stateVectorSearch  queryState = "vector_search"
	stateFused         queryState = "fused"
	stateReranked      queryState = "reranked"
	stateEnriched      queryState = "enriched"
	stateDone          queryState = "done"
	stateFailed        queryState = "failed"
)

// RetrievalService orchestrates the hybrid retrieval pipeline: chunked
// ingestion, concurrent lexical + vector search, score fusion, optional
// reranking and metadata enrichment.
type RetrievalService struct {
	docStore driven.DocumentStore
	lexical  driven.LexicalIndex
	vector   driven.VectorIndex
	embedder driven.EmbeddingService
	reranker driven.Reranker
	chunker  *chunker.Chunker
	weights  domain.Weights
}

// NewRetrievalService creates the pipeline. docStore, lexical and chk are
// required. vector and embedder are optional and only enable the vector
// path together; reranker is optional. Zero weights default to 0.5/0.5.
func NewRetrievalService(
	docStore driven.DocumentStore,
	lexical driven.LexicalIndex,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
	reranker driven.Reranker,
	chk *chunker.Chunker,
	weights domain.Weights,
) (*RetrievalService, error) {
	if docStore == nil || lexical == nil || chk == nil {
		return nil, fmt.Errorf("%w: document store, lexical index and chunker are required",
			domain.ErrInvalidConfiguration)
	}
	if weights == (domain.Weights{}) {
		weights = domain.DefaultWeights()
	}
	if weights.Lexical < 0 || weights.Vector < 0 {
		return nil, fmt.Errorf("%w: fusion weights must be non-negative", domain.ErrInvalidConfiguration)
	}

	return &RetrievalService{
		docStore: docStore,
		lexical:  lexical,
		vector:   vector,
		embedder: embedder,
		reranker: reranker,
		chunker:  chk,
		weights:  weights,
	}, nil
}

// vectorEnabled reports whether the vector path is configured.
func (s *RetrievalService) vectorEnabled() bool {
	return s.vector != nil && s.embedder != nil
}

// Ingest chunks the documents, stores them, populates the vector index
// when an embedder is configured, and rebuilds the lexical index over the
// whole corpus.
func (s *RetrievalService) Ingest(ctx context.Context, docs []domain.Document) error {
	logger.Section("Ingestion")
	logger.Info("Ingesting %d documents", len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.docStore.Add(ctx, doc); err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}

		chunks, err := s.chunker.Chunk(doc)
		if err != nil {
			return fmt.Errorf("chunk document %s: %w", doc.ID, err)
		}
		if len(chunks) == 0 {
			logger.Debug("Document %s produced no chunks", doc.ID)
			continue
		}

		if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
			return fmt.Errorf("save chunks for %s: %w", doc.ID, err)
		}
		logger.Debug("Document %s: %d chunks", doc.ID, len(chunks))
	}

	return s.Reindex(ctx)
}

// embedChunks generates embeddings for the chunks and adds them to the
// vector index.
func (s *RetrievalService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	for i, ch := range chunks {
		if err := s.vector.Add(ctx, ch.ID, embeddings[i]); err != nil {
			return fmt.Errorf("add embedding for %s: %w", ch.ID, err)
		}
	}
	return nil
}

// Reindex rebuilds the lexical index from every chunk in the document
// store and, when an embedder is configured, repopulates the vector
// index. Run at startup so a persisted corpus is searchable without
// re-ingesting. Readers keep seeing the previous lexical index until the
// swap completes.
func (s *RetrievalService) Reindex(ctx context.Context) error {
	docs, err := s.docStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var all []domain.Chunk
	for _, doc := range docs {
		chunks, err := s.docStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("get chunks for %s: %w", doc.ID, err)
		}
		all = append(all, chunks...)
	}

	logger.Info("Indexing %d chunks from %d documents", len(all), len(docs))
	if err := s.lexical.Index(ctx, all); err != nil {
		return fmt.Errorf("build lexical index: %w", err)
	}

	if s.vectorEnabled() && len(all) > 0 {
		if err := s.embedChunks(ctx, all); err != nil {
			return fmt.Errorf("populate vector index: %w", err)
		}
	}
	return nil
}

// Retrieve runs the hybrid pipeline for one query. Lexical and vector
// searches run concurrently, each bounded to topRetrieve candidates; the
// fused list is reranked when a reranker is configured and the final
// topFinal results are enriched with document metadata.
//
// A single failing backend degrades the response instead of failing it;
// both backends failing is ErrRetrievalUnavailable.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, topRetrieve, topFinal int,
) (*domain.RetrievalResponse, error) {
	if topFinal <= 0 || topFinal > topRetrieve {
		return nil, fmt.Errorf("%w: need 0 < topFinal <= topRetrieve, got topFinal=%d topRetrieve=%d",
			domain.ErrInvalidArgument, topFinal, topRetrieve)
	}

	traceID := uuid.NewString()
	logger.Section("Retrieval")
	s.transition(traceID, stateReceived)
	logger.Debug("Query %s: %q (topRetrieve=%d, topFinal=%d)", traceID, query, topRetrieve, topFinal)

	response := &domain.RetrievalResponse{
		Query:   query,
		TraceID: traceID,
		Results: []domain.RetrievalResult{},
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Query %s: empty query, returning no results", traceID)
		s.transition(traceID, stateDone)
		return response, nil
	}

	if err := ctx.Err(); err != nil {
		s.transition(traceID, stateFailed)
		return nil, err
	}

	// Run lexical and vector searches in parallel.
	var lexHits []driven.LexicalHit
	var vecHits []driven.VectorHit
	var lexErr, vecErr error

	var wg sync.WaitGroup
	wg.Add(1)
	s.transition(traceID, stateLexicalSearch)
	go func() {
		defer wg.Done()
		lexHits, lexErr = s.lexical.Search(ctx, query, topRetrieve)
	}()

	if s.vectorEnabled() {
		wg.Add(1)
		s.transition(traceID, stateVectorSearch)
		go func() {
			defer wg.Done()
			vecHits, vecErr = s.vectorSearch(ctx, query, topRetrieve)
		}()
	}

	wg.Wait()

	switch {
	case lexErr != nil && s.vectorEnabled() && vecErr != nil:
		s.transition(traceID, stateFailed)
		return nil, fmt.Errorf("%w: lexical: %v, vector: %v", domain.ErrRetrievalUnavailable, lexErr, vecErr)

	case lexErr != nil && !s.vectorEnabled():
		s.transition(traceID, stateFailed)
		return nil, fmt.Errorf("%w: lexical: %v", domain.ErrRetrievalUnavailable, lexErr)

	case lexErr != nil:
		logger.Warn("Query %s: lexical search failed, using vector results only: %v", traceID, lexErr)
		lexHits = nil
		response.Degraded = true

	case vecErr != nil:
		logger.Warn("Query %s: vector search failed, using lexical results only: %v", traceID, vecErr)
		vecHits = nil
		response.Degraded = true
	}

	lexCands := make([]domain.ScoredCandidate, len(lexHits))
	for i, hit := range lexHits {
		lexCands[i] = domain.ScoredCandidate{ChunkID: hit.ChunkID, Score: hit.Score, Source: domain.SourceLexical}
	}
	vecCands := make([]domain.ScoredCandidate, len(vecHits))
	for i, hit := range vecHits {
		vecCands[i] = domain.ScoredCandidate{ChunkID: hit.ChunkID, Score: hit.Similarity, Source: domain.SourceVector}
	}

	fused := Fuse(lexCands, vecCands, s.weights)
	if len(fused) > topRetrieve {
		fused = fused[:topRetrieve]
	}
	s.transition(traceID, stateFused)
	logger.Debug("Query %s: %d lexical + %d vector fused to %d candidates",
		traceID, len(lexCands), len(vecCands), len(fused))

	final := fused
	if s.reranker != nil && len(fused) > 0 {
		reranked, err := s.rerank(ctx, query, fused, topFinal)
		if err != nil {
			var backendErr *domain.BackendError
			if !errors.As(err, &backendErr) {
				s.transition(traceID, stateFailed)
				return nil, err
			}
			logger.Warn("Query %s: rerank failed, keeping fused order: %v", traceID, err)
			response.Degraded = true
		} else {
			final = reranked
			s.transition(traceID, stateReranked)
		}
	}

	if len(final) > topFinal {
		final = final[:topFinal]
	}

	results, err := s.enrich(ctx, final)
	if err != nil {
		s.transition(traceID, stateFailed)
		return nil, err
	}
	s.transition(traceID, stateEnriched)

	response.Results = results
	s.transition(traceID, stateDone)
	logger.Info("Query %s: %d results (degraded=%t)", traceID, len(results), response.Degraded)
	return response, nil
}

// transition logs a pipeline state change for the query.
func (s *RetrievalService) transition(traceID string, state queryState) {
	logger.Debug("Query %s: state=%s", traceID, state)
}

// vectorSearch embeds the query and searches the vector index.
func (s *RetrievalService) vectorSearch(ctx context.Context, query string, topN int) ([]driven.VectorHit, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vector.Search(ctx, embedding, topN)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// rerank scores each candidate's passage against the query with the
// configured reranker and returns at most topK candidates, descending by
// new score with ties broken by pre-rerank rank.
func (s *RetrievalService) rerank(
	ctx context.Context, query string, candidates []domain.ScoredCandidate, topK int,
) ([]domain.ScoredCandidate, error) {
	type rescored struct {
		candidate domain.ScoredCandidate
		priorRank int
	}

	scored := make([]rescored, 0, len(candidates))
	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := s.docStore.GetChunk(ctx, cand.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.DataIntegrityError{ChunkID: cand.ChunkID}
			}
			return nil, fmt.Errorf("get chunk %s: %w", cand.ChunkID, err)
		}

		score, err := s.reranker.Score(ctx, query, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("score chunk %s: %w", cand.ChunkID, err)
		}

		scored = append(scored, rescored{
			candidate: domain.ScoredCandidate{ChunkID: cand.ChunkID, Score: score, Source: domain.SourceReranked},
			priorRank: i,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].candidate.Score != scored[j].candidate.Score {
			return scored[i].candidate.Score > scored[j].candidate.Score
		}
		return scored[i].priorRank < scored[j].priorRank
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	result := make([]domain.ScoredCandidate, len(scored))
	for i, r := range scored {
		result[i] = r.candidate
	}
	return result, nil
}

// enrich resolves each candidate's chunk and parent document and builds
// the final ranked results. A dangling reference is a DataIntegrityError,
// never a silently dropped result.
func (s *RetrievalService) enrich(ctx context.Context, candidates []domain.ScoredCandidate) ([]domain.RetrievalResult, error) {
	results := make([]domain.RetrievalResult, 0, len(candidates))

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := s.docStore.GetChunk(ctx, cand.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.DataIntegrityError{ChunkID: cand.ChunkID}
			}
			return nil, fmt.Errorf("get chunk %s: %w", cand.ChunkID, err)
		}

		doc, err := s.docStore.Get(ctx, chunk.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.DataIntegrityError{ChunkID: cand.ChunkID, DocumentID: chunk.DocumentID}
			}
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}

		results = append(results, domain.RetrievalResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Metadata:   doc.Metadata,
			FinalScore: cand.Score,
			Rank:       i + 1,
		})
	}

	return results, nil
}
