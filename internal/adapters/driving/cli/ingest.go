package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/retrieva/internal/dataset"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [documents.jsonl]",
	Short: "Ingest a corpus file",
	Long: `Loads documents from a JSON Lines file (one {"id", "text", "metadata"}
object per line), chunks them, and populates the document store and the
search indices.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	docs, err := dataset.LoadDocuments(args[0])
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	if err := retrievalService.Ingest(context.Background(), docs); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("%s %d documents from %s\n", color.GreenString("Ingested"), len(docs), args[0])
	return nil
}
