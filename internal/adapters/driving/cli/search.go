package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

var (
	searchTopRetrieve int
	searchTopFinal    int
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve ranked passages for a query",
	Long: `Runs the hybrid retrieval pipeline for one query. BM25 keyword search
and vector similarity run in parallel; their scores are fused, optionally
reranked, and the top results are returned with document metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopRetrieve, "top-retrieve", 50, "per-backend candidate count")
	searchCmd.Flags().IntVarP(&searchTopFinal, "top-final", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	response, err := retrievalService.Retrieve(context.Background(), args[0], searchTopRetrieve, searchTopFinal)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputResponseJSON(cmd, response)
	}
	return outputResponseTable(cmd, response)
}

func outputResponseJSON(cmd *cobra.Command, response *domain.RetrievalResponse) error {
	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResponseTable(cmd *cobra.Command, response *domain.RetrievalResponse) error {
	if response.Degraded {
		cmd.Println(color.YellowString("Warning: a retrieval backend failed, results are degraded."))
	}

	if len(response.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results for %q (trace %s):\n\n", response.Query, response.TraceID)
	for _, result := range response.Results {
		cmd.Printf("  [%d] %s (%.4f)\n", result.Rank, color.CyanString(result.ChunkID), result.FinalScore)
		cmd.Printf("      Document: %s\n", result.DocumentID)
		cmd.Printf("      %s\n\n", snippet(result.Text, 160))
	}

	return nil
}

// snippet truncates text for single-line display.
func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
