package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/engine"
)

// newIngestCmd creates the ingest command.
func newIngestCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest <document.json> [more.json...]",
		Short: "Ingest documents and report indexing results",
		Long: `Ingest one or more document JSON files through the full pipeline:
batch embedding, vector indexing, keyword indexing, and hierarchy
storage. State lives in memory, so this command is primarily a
validation and dry-run tool; use 'ragctl answer --documents' to ingest
and query in one invocation.

Each file holds one document:

  {
    "documentId": "os-notes",
    "parents":  [{"id": "p1", "content": "...", "metadata": {...}}],
    "children": [{"text": "...", "parentId": "p1"}]
  }`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

func runIngest(cmd *cobra.Command, paths []string, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer func() { _ = eng.Close() }()

	results, err := ingestDocuments(ctx, eng, paths)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), results)
	}

	w := cmd.OutOrStdout()
	for _, res := range results {
		status := eng.ProcessingStatus(res.DocumentID)
		fmt.Fprintf(w, "%s: %d chunks indexed, %d failed (%d/%d batches completed)\n",
			res.DocumentID, res.IndexedChunks, res.FailedChunks, status.Completed, status.Total)
	}
	return nil
}
