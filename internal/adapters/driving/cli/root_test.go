package cli

import (
	"context"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// stubRetrieval returns one canned result for any query.
type stubRetrieval struct {
	degraded bool
	err      error
}

func (s *stubRetrieval) Ingest(context.Context, []domain.Document) error { return s.err }

func (s *stubRetrieval) Retrieve(
	_ context.Context, query string, _, _ int,
) (*domain.RetrievalResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.RetrievalResponse{
		Query:    query,
		TraceID:  "trace-test",
		Degraded: s.degraded,
		Results: []domain.RetrievalResult{{
			ChunkID:    "login-form::chunk_0",
			DocumentID: "login-form",
			Text:       "<button>Sign in</button>",
			FinalScore: 0.9,
			Rank:       1,
		}},
	}, nil
}

// stubEvaluation returns a minimal report for any input.
type stubEvaluation struct {
	err error
}

func (s *stubEvaluation) Evaluate(
	_ context.Context, queries []domain.Query, _ []domain.RelevanceJudgment, ks []int,
) (*domain.EvaluationReport, error) {
	if s.err != nil {
		return nil, s.err
	}

	report := &domain.EvaluationReport{RunID: "run-test", MacroMRR: 1.0}
	for _, q := range queries {
		row := domain.QueryMetrics{QueryID: q.ID, MRR: 1.0, RelevantTotal: 1}
		for _, k := range ks {
			row.AtK = append(row.AtK, domain.MetricsAtK{K: k, Precision: 1, Recall: 1, NDCG: 1})
		}
		report.Queries = append(report.Queries, row)
	}
	for _, k := range ks {
		report.Macro = append(report.Macro, domain.MetricsAtK{K: k, Precision: 1, Recall: 1, NDCG: 1})
	}
	return report, nil
}

// setupTestServices wires stub services and returns a cleanup function.
func setupTestServices() func() {
	SetServices(&stubRetrieval{}, &stubEvaluation{})
	return func() {
		SetServices(nil, nil)
	}
}
