package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/batch"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/engine"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var documents []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <documentId>",
		Short: "Show batch processing status for a document",
		Long: `Ingest the given document files and report per-batch embedding
progress for one document: how many batches are queued, processing,
completed, or failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, args[0], documents, jsonOutput)
		},
	}

	cmd.Flags().StringSliceVar(&documents, "documents", nil, "Document JSON files to ingest first")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

// StatusOutput is the JSON output format for document status.
type StatusOutput struct {
	DocumentID string        `json:"document_id"`
	Total      int           `json:"total_batches"`
	Queued     int           `json:"queued"`
	Processing int           `json:"processing"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Done       bool          `json:"done"`
	Batches    []BatchOutput `json:"batches,omitempty"`
}

// BatchOutput is one batch job in the JSON status output.
type BatchOutput struct {
	BatchID    string `json:"batch_id"`
	BatchIndex int    `json:"batch_index"`
	Size       int    `json:"size"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, documentID string, documents []string, jsonOutput bool) error {
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

	if _, err := ingestDocuments(ctx, eng, documents); err != nil {
		return err
	}

	status := eng.ProcessingStatus(documentID)
	if status.Total == 0 {
		return fmt.Errorf("no processing record for document %q", documentID)
	}

	output := statusOutput(documentID, status)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), output)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Document: %s\n", output.DocumentID)
	fmt.Fprintf(w, "Batches:  %d total, %d completed, %d failed\n",
		output.Total, output.Completed, output.Failed)
	if output.Queued > 0 || output.Processing > 0 {
		fmt.Fprintf(w, "Pending:  %d queued, %d processing\n", output.Queued, output.Processing)
	}
	fmt.Fprintf(w, "Done:     %v\n", output.Done)
	for _, b := range output.Batches {
		if b.Error != "" {
			fmt.Fprintf(w, "  batch %d (%s): %s, %s\n", b.BatchIndex, b.BatchID, b.Status, b.Error)
		} else {
			fmt.Fprintf(w, "  batch %d (%s): %s\n", b.BatchIndex, b.BatchID, b.Status)
		}
	}
	return nil
}

func statusOutput(documentID string, status batch.DocumentStatus) *StatusOutput {
	out := &StatusOutput{
		DocumentID: documentID,
		Total:      status.Total,
		Queued:     status.Queued,
		Processing: status.Processing,
		Completed:  status.Completed,
		Failed:     status.Failed,
		Done:       status.Done,
	}
	for _, job := range status.Jobs {
		out.Batches = append(out.Batches, BatchOutput{
			BatchID:    job.BatchID,
			BatchIndex: job.BatchIndex,
			Size:       job.Size,
			Status:     string(job.Status),
			Error:      job.Error,
		})
	}
	return out
}
