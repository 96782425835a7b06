// Package cmd provides the CLI commands for ragctl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/logging"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/pkg/version"
)

var (
	configDir      string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the ragctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragctl",
		Short: "Hybrid retrieval and re-ranking engine",
		Long: `ragctl answers natural-language questions against a corpus of
ingested documents using multi-strategy retrieval, composite scoring,
and LLM re-ranking.

The engine keeps all state in memory: ingest documents and ask
questions within one invocation (see 'ragctl answer --documents').`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ragctl version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory containing rag.yaml")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newAnswerCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if debugMode {
		level = "debug"
	}

	cleanup, err := logging.SetupDefault(logging.Config{
		Level:         level,
		FilePath:      cfg.LogFile,
		WriteToStderr: debugMode,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup
	return nil
}

// loadConfig reads the config for command execution.
func loadConfig() (*config.Config, error) {
	return config.Load(configDir)
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
