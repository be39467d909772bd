package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// scriptedRetrieval returns canned responses keyed by query text.
type scriptedRetrieval struct {
	responses map[string]*domain.RetrievalResponse
	err       error
}

func (s *scriptedRetrieval) Ingest(context.Context, []domain.Document) error { return nil }

func (s *scriptedRetrieval) Retrieve(
	_ context.Context, query string, _, topFinal int,
) (*domain.RetrievalResponse, error) {
	if s.err != nil {
		return nil, s.err
	}

	response, ok := s.responses[query]
	if !ok {
		return &domain.RetrievalResponse{Query: query, Results: []domain.RetrievalResult{}}, nil
	}
	if len(response.Results) > topFinal {
		trimmed := *response
		trimmed.Results = response.Results[:topFinal]
		return &trimmed, nil
	}
	return response, nil
}

func rankedResults(ids ...[2]string) []domain.RetrievalResult {
	results := make([]domain.RetrievalResult, len(ids))
	for i, pair := range ids {
		results[i] = domain.RetrievalResult{
			ChunkID:    pair[0],
			DocumentID: pair[1],
			FinalScore: 1 / float64(i+1),
			Rank:       i + 1,
		}
	}
	return results
}

func TestNewEvaluator_Validation(t *testing.T) {
	_, err := NewEvaluator(nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))

	_, err = NewEvaluator(&scriptedRetrieval{}, WithWorkers(0))
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))

	_, err = NewEvaluator(&scriptedRetrieval{}, WithTopRetrieve(-1))
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
}

func TestEvaluate_InvalidCutoffs(t *testing.T) {
	eval, err := NewEvaluator(&scriptedRetrieval{})
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), nil, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	_, err = eval.Evaluate(context.Background(), nil, nil, []int{1, 0})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestEvaluate_PerfectSingleQuery(t *testing.T) {
	retrieval := &scriptedRetrieval{responses: map[string]*domain.RetrievalResponse{
		"sign in button": {Results: rankedResults([2]string{"d1::chunk_0", "d1"})},
	}}
	eval, err := NewEvaluator(retrieval)
	require.NoError(t, err)

	report, err := eval.Evaluate(context.Background(),
		[]domain.Query{{ID: "q1", Text: "sign in button"}},
		[]domain.RelevanceJudgment{{QueryID: "q1", TargetID: "d1::chunk_0", Label: 1}},
		[]int{1})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Queries, 1)

	row := report.Queries[0]
	assert.Equal(t, "q1", row.QueryID)
	assert.Equal(t, 1, row.RelevantTotal)
	require.Len(t, row.AtK, 1)
	assert.Equal(t, 1.0, row.AtK[0].Precision)
	assert.Equal(t, 1.0, row.AtK[0].Recall)
	assert.Equal(t, 1.0, row.AtK[0].NDCG)
	assert.Equal(t, 1.0, row.MRR)

	require.Len(t, report.Macro, 1)
	assert.Equal(t, 1.0, report.Macro[0].Precision)
	assert.Equal(t, 1.0, report.Macro[0].Recall)
	assert.Equal(t, 1.0, report.Macro[0].NDCG)
	assert.Equal(t, 1.0, report.MacroMRR)
}

func TestEvaluate_DocumentLevelJudgmentMatches(t *testing.T) {
	retrieval := &scriptedRetrieval{responses: map[string]*domain.RetrievalResponse{
		"pricing": {Results: rankedResults([2]string{"pricing-table::chunk_0", "pricing-table"})},
	}}
	eval, err := NewEvaluator(retrieval)
	require.NoError(t, err)

	report, err := eval.Evaluate(context.Background(),
		[]domain.Query{{ID: "q1", Text: "pricing"}},
		[]domain.RelevanceJudgment{{QueryID: "q1", TargetID: "pricing-table", Label: 2}},
		[]int{1})
	require.NoError(t, err)

	assert.Equal(t, 1.0, report.Queries[0].AtK[0].Precision)
	assert.Equal(t, 1.0, report.Queries[0].AtK[0].Recall)
	assert.Equal(t, 1.0, report.Queries[0].MRR)
}

func TestEvaluate_ZeroRelevantExcludedFromRecallMacro(t *testing.T) {
	retrieval := &scriptedRetrieval{responses: map[string]*domain.RetrievalResponse{
		"judged":   {Results: rankedResults([2]string{"a::chunk_0", "a"})},
		"unjudged": {Results: rankedResults([2]string{"b::chunk_0", "b"})},
	}}
	eval, err := NewEvaluator(retrieval)
	require.NoError(t, err)

	report, err := eval.Evaluate(context.Background(),
		[]domain.Query{{ID: "q1", Text: "judged"}, {ID: "q2", Text: "unjudged"}},
		[]domain.RelevanceJudgment{{QueryID: "q1", TargetID: "a::chunk_0", Label: 1}},
		[]int{1})
	require.NoError(t, err)

	require.Len(t, report.Queries, 2)
	assert.Equal(t, 0, report.Queries[1].RelevantTotal)
	assert.Equal(t, 0.0, report.Queries[1].AtK[0].Recall)

	// Recall macro counts only q1; precision macro counts both.
	assert.Equal(t, 1.0, report.Macro[0].Recall)
	assert.Equal(t, 0.5, report.Macro[0].Precision)
	assert.Equal(t, 0.5, report.MacroMRR)
}

func TestEvaluate_GradedNDCG(t *testing.T) {
	// The lower-labeled chunk is ranked first, so nDCG@2 < 1.
	retrieval := &scriptedRetrieval{responses: map[string]*domain.RetrievalResponse{
		"q": {Results: rankedResults(
			[2]string{"low::chunk_0", "low"},
			[2]string{"high::chunk_0", "high"},
		)},
	}}
	eval, err := NewEvaluator(retrieval)
	require.NoError(t, err)

	report, err := eval.Evaluate(context.Background(),
		[]domain.Query{{ID: "q1", Text: "q"}},
		[]domain.RelevanceJudgment{
			{QueryID: "q1", TargetID: "high::chunk_0", Label: 2},
			{QueryID: "q1", TargetID: "low::chunk_0", Label: 1},
		},
		[]int{2})
	require.NoError(t, err)

	dcg := 1.0/math.Log2(2) + 2.0/math.Log2(3)
	idcg := 2.0/math.Log2(2) + 1.0/math.Log2(3)
	assert.InDelta(t, dcg/idcg, report.Queries[0].AtK[0].NDCG, 1e-9)
	assert.Less(t, report.Queries[0].AtK[0].NDCG, 1.0)
}

func TestEvaluate_MRRLaterRank(t *testing.T) {
	retrieval := &scriptedRetrieval{responses: map[string]*domain.RetrievalResponse{
		"q": {Results: rankedResults(
			[2]string{"miss1::chunk_0", "miss1"},
			[2]string{"miss2::chunk_0", "miss2"},
			[2]string{"hit::chunk_0", "hit"},
		)},
	}}
	eval, err := NewEvaluator(retrieval)
	require.NoError(t, err)

	report, err := eval.Evaluate(context.Background(),
		[]domain.Query{{ID: "q1", Text: "q"}},
		[]domain.RelevanceJudgment{{QueryID: "q1", TargetID: "hit::chunk_0", Label: 1}},
		[]int{3})
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, report.Queries[0].MRR, 1e-9)
}

func TestEvaluate_RowsKeepInputOrder(t *testing.T) {
	responses := make(map[string]*domain.RetrievalResponse)
	queries := make([]domain.Query, 20)
	judgments := make([]domain.RelevanceJudgment, 20)
	for i := range queries {
		id := fmt.Sprintf("q%02d", i)
		queries[i] = domain.Query{ID: id, Text: id}
		judgments[i] = domain.RelevanceJudgment{QueryID: id, TargetID: id + "::chunk_0", Label: 1}
		responses[id] = &domain.RetrievalResponse{Results: rankedResults([2]string{id + "::chunk_0", id})}
	}

	eval, err := NewEvaluator(&scriptedRetrieval{responses: responses}, WithWorkers(8))
	require.NoError(t, err)

	report, err := eval.Evaluate(context.Background(), queries, judgments, []int{1, 5})
	require.NoError(t, err)

	require.Len(t, report.Queries, 20)
	for i, row := range report.Queries {
		assert.Equal(t, queries[i].ID, row.QueryID)
	}
	assert.Equal(t, 1.0, report.MacroMRR)
}

func TestEvaluate_PipelineErrorPropagates(t *testing.T) {
	eval, err := NewEvaluator(&scriptedRetrieval{err: domain.ErrRetrievalUnavailable})
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(),
		[]domain.Query{{ID: "q1", Text: "q"}}, nil, []int{1})
	assert.True(t, errors.Is(err, domain.ErrRetrievalUnavailable))
}
