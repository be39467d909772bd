package domain

// CandidateSource identifies the retrieval stage that produced a
// candidate's score.
type CandidateSource string

const (
	// SourceLexical marks scores produced by the BM25 keyword index.
	SourceLexical CandidateSource = "lexical"

	// SourceVector marks scores produced by the vector similarity index.
	SourceVector CandidateSource = "vector"

	// SourceFused marks scores produced by weighted score fusion.
	SourceFused CandidateSource = "fused"

	// SourceReranked marks scores produced by the pairwise reranker.
	SourceReranked CandidateSource = "reranked"
)

// ScoredCandidate is a transient, per-query scored reference to a chunk.
type ScoredCandidate struct {
	// ChunkID identifies the candidate chunk.
	ChunkID string

	// Score is the stage-specific relevance score.
	Score float64

	// Source records which stage assigned Score.
	Source CandidateSource
}

// Weights configures the lexical/vector balance used by score fusion.
// The two weights need not sum to 1.
type Weights struct {
	// Lexical multiplies the normalized BM25 score.
	Lexical float64

	// Vector multiplies the normalized similarity score.
	Vector float64
}

// DefaultWeights returns the balanced 0.5/0.5 fusion weights.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.5, Vector: 0.5}
}

// RetrievalResult is one entry of the pipeline's final ranked output,
// enriched with the parent document's metadata.
type RetrievalResult struct {
	// ChunkID identifies the retrieved chunk.
	ChunkID string

	// DocumentID identifies the chunk's parent document.
	DocumentID string

	// Text is the chunk's passage content.
	Text string

	// Metadata is the parent document's metadata.
	Metadata map[string]string

	// FinalScore is the score the result was ranked by.
	FinalScore float64

	// Rank is the 1-based dense rank within the response.
	Rank int
}

// RetrievalResponse is the envelope returned for a single query.
type RetrievalResponse struct {
	// Query is the original query text.
	Query string

	// TraceID uniquely identifies this query execution in logs.
	TraceID string

	// Degraded is true when a retrieval backend failed and the pipeline
	// fell back to the remaining healthy backend.
	Degraded bool

	// Results is the final ranked list, dense ranks starting at 1.
	Results []RetrievalResult
}
