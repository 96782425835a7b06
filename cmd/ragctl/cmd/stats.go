package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/engine"
)

// newStatsCmd creates the stats command.
func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show engine statistics and configuration",
		Long:  `Display cache counters, store capacity, query telemetry, and the effective configuration.`,
	}

	cmd.AddCommand(newStatsEngineCmd())
	cmd.AddCommand(newStatsConfigCmd())
	return cmd
}

func newStatsEngineCmd() *cobra.Command {
	var documents []string
	var questions []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Show cache, store, and query statistics",
		Long: `Build an engine, optionally ingest documents and run questions
through it, then report cache hit rates, hierarchy store usage, and
query latency distribution.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatsEngine(cmd, documents, questions, jsonOutput)
		},
	}

	cmd.Flags().StringSliceVar(&documents, "documents", nil, "Document JSON files to ingest first")
	cmd.Flags().StringSliceVar(&questions, "questions", nil, "Questions to run before reporting")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newStatsConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cfg)
		},
	}
	return cmd
}

// StatsEngineOutput is the JSON output format for engine stats.
type StatsEngineOutput struct {
	Caches []CacheStatsOutput `json:"caches"`
	Store  StoreStatsOutput   `json:"store"`
	Query  QueryStatsOutput   `json:"query"`
}

// CacheStatsOutput is one result cache's counters.
type CacheStatsOutput struct {
	Name      string  `json:"name"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// StoreStatsOutput is the hierarchy store's counters.
type StoreStatsOutput struct {
	Size      int    `json:"size"`
	MaxSize   int    `json:"max_size"`
	Evictions uint64 `json:"evictions"`
	Expired   uint64 `json:"expired"`
}

// QueryStatsOutput summarizes query telemetry.
type QueryStatsOutput struct {
	TotalQueries       int64            `json:"total_queries"`
	CacheHitRate       float64          `json:"cache_hit_rate"`
	FallbackAnswers    int64            `json:"fallback_answers"`
	DegradedRetrievals int64            `json:"degraded_retrievals"`
	ZeroResults        int64            `json:"zero_results"`
	AverageLatencyMs   int64            `json:"average_latency_ms"`
	MethodCounts       map[string]int64 `json:"method_counts,omitempty"`
	LatencyBuckets     map[string]int64 `json:"latency_buckets,omitempty"`
}

func runStatsEngine(cmd *cobra.Command, documents, questions []string, jsonOutput bool) error {
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
	for _, q := range questions {
		if _, err := eng.Answer(ctx, q); err != nil {
			return fmt.Errorf("question %q failed: %w", q, err)
		}
	}

	output := collectStats(eng)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), output)
	}
	return printStatsFormatted(cmd, cfg, output)
}

func collectStats(eng *engine.Engine) *StatsEngineOutput {
	output := &StatsEngineOutput{}

	for _, cs := range eng.CacheStats() {
		hitRate := 0.0
		if total := cs.Hits + cs.Misses; total > 0 {
			hitRate = float64(cs.Hits) / float64(total)
		}
		output.Caches = append(output.Caches, CacheStatsOutput{
			Name:      cs.Name,
			Size:      cs.Size,
			MaxSize:   cs.MaxEntries,
			Hits:      cs.Hits,
			Misses:    cs.Misses,
			Evictions: cs.Evictions,
			HitRate:   hitRate,
		})
	}

	ss := eng.StoreStats()
	output.Store = StoreStatsOutput{
		Size:      ss.Size,
		MaxSize:   ss.MaxSize,
		Evictions: ss.Evictions,
		Expired:   ss.Expired,
	}

	snap := eng.Metrics()
	output.Query = QueryStatsOutput{
		TotalQueries:       snap.TotalQueries,
		CacheHitRate:       snap.CacheHitRate(),
		FallbackAnswers:    snap.FallbackAnswers,
		DegradedRetrievals: snap.DegradedRetrievals,
		ZeroResults:        snap.ZeroResults,
		AverageLatencyMs:   snap.AverageLatency.Milliseconds(),
	}
	if len(snap.MethodCounts) > 0 {
		output.Query.MethodCounts = snap.MethodCounts
	}
	if len(snap.LatencyBuckets) > 0 {
		output.Query.LatencyBuckets = make(map[string]int64, len(snap.LatencyBuckets))
		for bucket, count := range snap.LatencyBuckets {
			output.Query.LatencyBuckets[string(bucket)] = count
		}
	}

	return output
}

func printStatsFormatted(cmd *cobra.Command, cfg *config.Config, output *StatsEngineOutput) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Engine Statistics")
	fmt.Fprintln(w, "=================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Caches:")
	for _, cs := range output.Caches {
		fmt.Fprintf(w, "  %-8s %d/%d entries, %.0f%% hit rate, %d evictions\n",
			cs.Name, cs.Size, cs.MaxSize, cs.HitRate*100, cs.Evictions)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Hierarchy Store: %d/%d parents, %d evicted, %d expired\n",
		output.Store.Size, output.Store.MaxSize, output.Store.Evictions, output.Store.Expired)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Queries: %d total, %.0f%% cache hits, %d fallbacks, %d degraded\n",
		output.Query.TotalQueries, output.Query.CacheHitRate*100,
		output.Query.FallbackAnswers, output.Query.DegradedRetrievals)
	if len(output.Query.MethodCounts) > 0 {
		fmt.Fprintln(w, "Retrieval Methods:")
		for method, count := range output.Query.MethodCounts {
			fmt.Fprintf(w, "  %s: %d\n", method, count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Rerank: enabled=%v  HyDE: enabled=%v  Assembly: enabled=%v\n",
		cfg.Rerank.Enabled, cfg.Retrieval.HyDEEnabled, cfg.Assemble.Enabled)
	return nil
}
