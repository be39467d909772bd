package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/core/ports/driving"
	"github.com/custodia-labs/retrieva/internal/logger"
)

// Ensure Evaluator implements the interface.
var _ driving.EvaluationService = (*Evaluator)(nil)

// DefaultEvalWorkers is the default evaluation pool size.
const DefaultEvalWorkers = 4

// DefaultTopRetrieve is the default per-backend candidate bound used for
// evaluation runs.
const DefaultTopRetrieve = 50

// Evaluator measures retrieval quality by running the pipeline for every
// labeled query and scoring the rankings against relevance judgments.
// Queries run concurrently on a worker pool; each query carries its own
// pipeline-local state so no ranking state is shared.
type Evaluator struct {
	retrieval   driving.RetrievalService
	topRetrieve int
	workers     int
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithTopRetrieve sets the per-backend candidate bound for evaluation
// queries.
func WithTopRetrieve(n int) EvaluatorOption {
	return func(e *Evaluator) {
		e.topRetrieve = n
	}
}

// WithWorkers sets the evaluation pool size.
func WithWorkers(n int) EvaluatorOption {
	return func(e *Evaluator) {
		e.workers = n
	}
}

// NewEvaluator creates an evaluator running queries through the given
// pipeline.
func NewEvaluator(retrieval driving.RetrievalService, opts ...EvaluatorOption) (*Evaluator, error) {
	if retrieval == nil {
		return nil, fmt.Errorf("%w: retrieval service is required", domain.ErrInvalidConfiguration)
	}

	e := &Evaluator{
		retrieval:   retrieval,
		topRetrieve: DefaultTopRetrieve,
		workers:     DefaultEvalWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.topRetrieve <= 0 {
		return nil, fmt.Errorf("%w: top retrieve must be positive, got %d", domain.ErrInvalidConfiguration, e.topRetrieve)
	}
	if e.workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", domain.ErrInvalidConfiguration, e.workers)
	}
	return e, nil
}

// Evaluate runs the pipeline for every query and computes Precision@k,
// Recall@k and nDCG@k for each k in ks, plus MRR, with unweighted
// macro-averages across queries. Queries with no judged-relevant targets
// score Recall@k = 0 and are excluded from the recall macro-average.
func (e *Evaluator) Evaluate(
	ctx context.Context, queries []domain.Query, judgments []domain.RelevanceJudgment, ks []int,
) (*domain.EvaluationReport, error) {
	if len(ks) == 0 {
		return nil, fmt.Errorf("%w: at least one cutoff k is required", domain.ErrInvalidArgument)
	}
	for _, k := range ks {
		if k <= 0 {
			return nil, fmt.Errorf("%w: cutoff k must be positive, got %d", domain.ErrInvalidArgument, k)
		}
	}

	runID := uuid.NewString()
	logger.Section("Evaluation")
	logger.Info("Run %s: %d queries, %d judgments, cutoffs %v", runID, len(queries), len(judgments), ks)

	labels := groupJudgments(judgments)
	depth := maxCutoff(ks)

	pool, err := ants.NewPool(e.workers)
	if err != nil {
		return nil, fmt.Errorf("create evaluation pool: %w", err)
	}
	defer pool.Release()

	rows := make([]domain.QueryMetrics, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		i, q := i, q
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			rows[i], errs[i] = e.evaluateQuery(ctx, q, labels[q.ID], ks, depth)
		}); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit query %s: %w", q.ID, err)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("evaluate query %s: %w", queries[i].ID, err)
		}
	}

	report := &domain.EvaluationReport{
		RunID:   runID,
		Queries: rows,
	}
	aggregate(report, ks)

	logger.Info("Run %s: complete, macro MRR %.4f", runID, report.MacroMRR)
	return report, nil
}

// evaluateQuery runs one query through the pipeline and scores the
// returned ranking against its judgments.
func (e *Evaluator) evaluateQuery(
	ctx context.Context, query domain.Query, labels map[string]int, ks []int, depth int,
) (domain.QueryMetrics, error) {
	topRetrieve := e.topRetrieve
	if depth > topRetrieve {
		topRetrieve = depth
	}

	response, err := e.retrieval.Retrieve(ctx, query.Text, topRetrieve, depth)
	if err != nil {
		return domain.QueryMetrics{}, err
	}

	relevantTotal := 0
	for _, label := range labels {
		if label > 0 {
			relevantTotal++
		}
	}

	metrics := domain.QueryMetrics{
		QueryID:       query.ID,
		AtK:           make([]domain.MetricsAtK, len(ks)),
		MRR:           reciprocalRank(response.Results, labels),
		RelevantTotal: relevantTotal,
		Degraded:      response.Degraded,
	}

	for i, k := range ks {
		metrics.AtK[i] = domain.MetricsAtK{
			K:         k,
			Precision: precisionAt(response.Results, labels, k),
			Recall:    recallAt(response.Results, labels, relevantTotal, k),
			NDCG:      ndcgAt(response.Results, labels, k),
		}
	}

	logger.Debug("Query %s: MRR %.4f (relevant=%d, degraded=%t)",
		query.ID, metrics.MRR, relevantTotal, metrics.Degraded)
	return metrics, nil
}

// groupJudgments indexes judgment labels by query ID then target ID.
func groupJudgments(judgments []domain.RelevanceJudgment) map[string]map[string]int {
	grouped := make(map[string]map[string]int)
	for _, j := range judgments {
		if grouped[j.QueryID] == nil {
			grouped[j.QueryID] = make(map[string]int)
		}
		grouped[j.QueryID][j.TargetID] = j.Label
	}
	return grouped
}

func maxCutoff(ks []int) int {
	depth := 0
	for _, k := range ks {
		if k > depth {
			depth = k
		}
	}
	return depth
}

// resultLabel returns the judged label for a retrieved chunk. The chunk
// matches a judgment on its own ID or on its parent document's ID.
func resultLabel(result domain.RetrievalResult, labels map[string]int) int {
	if label, ok := labels[result.ChunkID]; ok {
		return label
	}
	return labels[result.DocumentID]
}

// precisionAt is the fraction of the top-k slots holding a relevant
// result. The denominator is k even when fewer results were retrieved.
func precisionAt(results []domain.RetrievalResult, labels map[string]int, k int) float64 {
	relevant := 0
	for i := 0; i < k && i < len(results); i++ {
		if resultLabel(results[i], labels) > 0 {
			relevant++
		}
	}
	return float64(relevant) / float64(k)
}

// recallAt is the fraction of judged-relevant targets found in the
// top-k. Two chunks matching the same judged document count once.
func recallAt(results []domain.RetrievalResult, labels map[string]int, relevantTotal, k int) float64 {
	if relevantTotal == 0 {
		return 0
	}

	found := make(map[string]bool)
	for i := 0; i < k && i < len(results); i++ {
		if label, ok := labels[results[i].ChunkID]; ok && label > 0 {
			found[results[i].ChunkID] = true
			continue
		}
		if label, ok := labels[results[i].DocumentID]; ok && label > 0 {
			found[results[i].DocumentID] = true
		}
	}
	return float64(len(found)) / float64(relevantTotal)
}

// ndcgAt is DCG@k over the retrieved ranking divided by the ideal DCG@k
// over the judged labels. 0 when no judged item has a positive label.
func ndcgAt(results []domain.RetrievalResult, labels map[string]int, k int) float64 {
	var dcg float64
	for i := 0; i < k && i < len(results); i++ {
		gain := float64(resultLabel(results[i], labels))
		dcg += gain / math.Log2(float64(i)+2)
	}

	ideal := make([]int, 0, len(labels))
	for _, label := range labels {
		if label > 0 {
			ideal = append(ideal, label)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ideal)))

	var idcg float64
	for i := 0; i < k && i < len(ideal); i++ {
		idcg += float64(ideal[i]) / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// reciprocalRank is 1/rank of the first relevant result, 0 if none.
func reciprocalRank(results []domain.RetrievalResult, labels map[string]int) float64 {
	for i, result := range results {
		if resultLabel(result, labels) > 0 {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// aggregate fills the report's macro-averages. The recall mean only
// counts queries with at least one judged-relevant target; all other
// means are over every query.
func aggregate(report *domain.EvaluationReport, ks []int) {
	if len(report.Queries) == 0 {
		return
	}

	total := float64(len(report.Queries))
	withRelevant := 0.0
	for _, row := range report.Queries {
		report.MacroMRR += row.MRR
		if row.RelevantTotal > 0 {
			withRelevant++
		}
	}
	report.MacroMRR /= total

	report.Macro = make([]domain.MetricsAtK, len(ks))
	for i, k := range ks {
		macro := domain.MetricsAtK{K: k}
		for _, row := range report.Queries {
			macro.Precision += row.AtK[i].Precision
			macro.NDCG += row.AtK[i].NDCG
			if row.RelevantTotal > 0 {
				macro.Recall += row.AtK[i].Recall
			}
		}
		macro.Precision /= total
		macro.NDCG /= total
		if withRelevant > 0 {
			macro.Recall /= withRelevant
		}
		report.Macro[i] = macro
	}
}
