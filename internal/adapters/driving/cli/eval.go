package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/dataset"
)

var (
	evalQueriesPath string
	evalQrelsPath   string
	evalCutoffs     []int
	evalJSON        bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate retrieval quality against a judgment set",
	Long: `Runs every labeled query through the retrieval pipeline and reports
Precision@k, Recall@k, nDCG@k and MRR per query, plus unweighted
macro-averages. Queries load from a JSON Lines file, judgments from a
qrels CSV (query_id, target_id, label).`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalQueriesPath, "queries", "", "path to queries JSONL file")
	evalCmd.Flags().StringVar(&evalQrelsPath, "qrels", "", "path to judgments CSV file")
	evalCmd.Flags().IntSliceVar(&evalCutoffs, "k", []int{1, 5, 10}, "rank cutoffs")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output the report as JSON")
	_ = evalCmd.MarkFlagRequired("queries")
	_ = evalCmd.MarkFlagRequired("qrels")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	queries, err := dataset.LoadQueries(evalQueriesPath)
	if err != nil {
		return fmt.Errorf("load queries: %w", err)
	}

	judgments, err := dataset.LoadJudgments(evalQrelsPath)
	if err != nil {
		return fmt.Errorf("load judgments: %w", err)
	}

	report, err := evaluationService.Evaluate(context.Background(), queries, judgments, evalCutoffs)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evalJSON {
		return outputReportJSON(cmd, report)
	}
	return outputReportTable(cmd, report)
}

func outputReportJSON(cmd *cobra.Command, report *domain.EvaluationReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputReportTable(cmd *cobra.Command, report *domain.EvaluationReport) error {
	cmd.Printf("Evaluation run %s: %d queries\n\n", report.RunID, len(report.Queries))

	for _, row := range report.Queries {
		marker := ""
		if row.Degraded {
			marker = color.YellowString(" (degraded)")
		}
		cmd.Printf("  %s  MRR=%.4f%s\n", row.QueryID, row.MRR, marker)
		for _, atK := range row.AtK {
			cmd.Printf("    @%-3d P=%.4f  R=%.4f  nDCG=%.4f\n", atK.K, atK.Precision, atK.Recall, atK.NDCG)
		}
	}

	cmd.Printf("\n%s\n", color.New(color.Bold).Sprint("Macro-averages"))
	for _, atK := range report.Macro {
		cmd.Printf("  @%-3d P=%.4f  R=%.4f  nDCG=%.4f\n", atK.K, atK.Precision, atK.Recall, atK.NDCG)
	}
	cmd.Printf("  MRR=%.4f\n", report.MacroMRR)

	return nil
}
