package domain

// Query is one labeled evaluation query.
type Query struct {
	// ID is the unique query identifier.
	ID string

	// Text is the query text handed to the pipeline.
	Text string
}

// RelevanceJudgment labels the relevance of a chunk or document for a
// query. Judgments are read-only evaluation input.
type RelevanceJudgment struct {
	// QueryID links the judgment to a Query.
	QueryID string

	// TargetID is a chunk ID or a document ID. A retrieved chunk matches
	// either its own ID or its parent document's ID.
	TargetID string

	// Label is the graded relevance, >= 0. Zero means not relevant.
	Label int
}

// MetricsAtK holds the cutoff-dependent retrieval metrics for one k.
type MetricsAtK struct {
	// K is the rank cutoff.
	K int

	// Precision is the fraction of the top-k that is judged relevant.
	Precision float64

	// Recall is the fraction of judged-relevant items found in the top-k.
	Recall float64

	// NDCG is the normalized discounted cumulative gain at k.
	NDCG float64
}

// QueryMetrics holds the per-query evaluation row.
type QueryMetrics struct {
	// QueryID identifies the evaluated query.
	QueryID string

	// AtK holds the metrics for each requested cutoff.
	AtK []MetricsAtK

	// MRR is the reciprocal rank of the first relevant result, 0 if none.
	MRR float64

	// RelevantTotal is the number of judged-relevant targets for the
	// query. Queries with RelevantTotal == 0 are excluded from the
	// recall macro-average.
	RelevantTotal int

	// Degraded is true when the pipeline degraded for this query.
	Degraded bool
}

// EvaluationReport aggregates per-query metrics into macro-averages.
type EvaluationReport struct {
	// RunID uniquely identifies the evaluation run.
	RunID string

	// Queries holds one row per evaluated query, in input order.
	Queries []QueryMetrics

	// Macro holds the unweighted per-k means across queries. The recall
	// mean only counts queries with at least one judged-relevant target.
	Macro []MetricsAtK

	// MacroMRR is the unweighted mean reciprocal rank across queries.
	MacroMRR float64
}
