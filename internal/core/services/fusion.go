package services

import (
	"sort"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// Fuse merges the lexical and vector candidate lists into a single
// ranking. Each list is min-max normalized to [0,1] before combining, so
// unbounded BM25 scores and bounded similarities become comparable. A
// chunk absent from one list contributes 0 for that side.
//
// Combined score = weights.Lexical*normLex + weights.Vector*normVec.
// Output is descending by combined score, ties broken by chunk ID
// ascending.
func Fuse(lexical, vector []domain.ScoredCandidate, weights domain.Weights) []domain.ScoredCandidate {
	lexNorm := normalizeScores(lexical)
	vecNorm := normalizeScores(vector)

	combined := make(map[string]float64, len(lexNorm)+len(vecNorm))
	for chunkID, score := range lexNorm {
		combined[chunkID] += weights.Lexical * score
	}
	for chunkID, score := range vecNorm {
		combined[chunkID] += weights.Vector * score
	}

	fused := make([]domain.ScoredCandidate, 0, len(combined))
	for chunkID, score := range combined {
		fused = append(fused, domain.ScoredCandidate{
			ChunkID: chunkID,
			Score:   score,
			Source:  domain.SourceFused,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ChunkID < fused[j].ChunkID
	})

	return fused
}

// normalizeScores min-max normalizes one candidate list to [0,1]. A list
// whose scores are all equal, including a single-candidate list,
// normalizes to 1.0 so the candidate is not erased by the rescale.
func normalizeScores(candidates []domain.ScoredCandidate) map[string]float64 {
	if len(candidates) == 0 {
		return nil
	}

	min, max := candidates[0].Score, candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score < min {
			min = c.Score
		}
		if c.Score > max {
			max = c.Score
		}
	}

	normalized := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		if max == min {
			normalized[c.ChunkID] = 1.0
			continue
		}
		normalized[c.ChunkID] = (c.Score - min) / (max - min)
	}
	return normalized
}
