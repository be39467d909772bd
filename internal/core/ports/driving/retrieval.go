package driving

import (
	"context"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// RetrievalService is the pipeline contract the rest of the system
// depends on: ingest a corpus once, then retrieve ranked passages.
type RetrievalService interface {
	// Ingest chunks the documents, stores them, and populates the
	// lexical and (when an embedder is configured) vector indices.
	Ingest(ctx context.Context, docs []domain.Document) error

	// Retrieve runs the hybrid pipeline for one query. topRetrieve bounds
	// the per-backend candidate count; topFinal bounds the returned
	// result count. Requires 0 < topFinal <= topRetrieve.
	Retrieve(ctx context.Context, query string, topRetrieve, topFinal int) (*domain.RetrievalResponse, error)
}
