package driving

import (
	"context"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// EvaluationService measures retrieval quality against a judgment set.
type EvaluationService interface {
	// Evaluate runs the retrieval pipeline for every query and computes
	// Precision@k, Recall@k and nDCG@k for each k in ks, plus MRR, with
	// unweighted macro-averages across queries.
	Evaluate(ctx context.Context, queries []domain.Query, judgments []domain.RelevanceJudgment, ks []int) (*domain.EvaluationReport, error)
}
