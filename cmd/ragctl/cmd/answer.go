package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/engine"
)

// newAnswerCmd creates the answer command.
func newAnswerCmd() *cobra.Command {
	var documents []string
	var jsonOutput bool
	var showSources bool

	cmd := &cobra.Command{
		Use:   "answer <question>",
		Short: "Answer a question against ingested documents",
		Long: `Ingest the given document files, then answer the question through
the full pipeline: query rewriting, multi-strategy retrieval, composite
scoring, hierarchical expansion, LLM re-ranking, narrative assembly,
and synthesis.

Example:
  ragctl answer --documents os-notes.json "How does paging work?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return runAnswer(cmd, question, documents, jsonOutput, showSources)
		},
	}

	cmd.Flags().StringSliceVar(&documents, "documents", nil, "Document JSON files to ingest before answering")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the answer as JSON")
	cmd.Flags().BoolVar(&showSources, "sources", false, "Show source chunks with scores")

	return cmd
}

func runAnswer(cmd *cobra.Command, question string, documents []string, jsonOutput, showSources bool) error {
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

	answer, err := eng.Answer(ctx, question)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), answer)
	}
	return printAnswerFormatted(cmd, answer, showSources)
}

func printAnswerFormatted(cmd *cobra.Command, answer *engine.Answer, showSources bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, answer.Text)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Retrieval:  %s\n", answer.RetrievalMethod)
	fmt.Fprintf(w, "Confidence: %.2f\n", answer.Confidence)
	if answer.Fallback {
		fmt.Fprintln(w, "Note: answer is a raw excerpt, synthesis was unavailable")
	}

	if showSources && len(answer.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for i, s := range answer.Sources {
			fmt.Fprintf(w, "  %d. %s (score %.3f, votes %d)\n", i+1, s.ParentID, s.Score, s.Votes)
		}
	}
	return nil
}
