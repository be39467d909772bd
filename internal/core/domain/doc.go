// Package domain defines the core entities of the retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An immutable corpus document with metadata
//   - Chunk: A bounded passage, the unit of retrieval
//   - ScoredCandidate: A per-query scored chunk reference
//   - RetrievalResult / RetrievalResponse: The pipeline's ranked output
//   - Query / RelevanceJudgment: Evaluation input
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
