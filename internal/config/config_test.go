package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	// Retrieval strategy weights
	assert.Equal(t, 0.4, cfg.Retrieval.SemanticWeight)
	assert.Equal(t, 0.3, cfg.Retrieval.HyDEWeight)
	assert.Equal(t, 0.2, cfg.Retrieval.KeywordWeight)
	assert.Equal(t, 0.1, cfg.Retrieval.MetadataWeight)
	assert.Equal(t, 60, cfg.Retrieval.RRFConstant)
	assert.Equal(t, 2.0, cfg.Retrieval.DistanceThreshold)
	assert.Equal(t, 5.0, cfg.Retrieval.FallbackDistanceThreshold)

	// Composite scorer weights
	assert.Equal(t, 0.35, cfg.Scoring.Semantic)
	assert.Equal(t, 0.25, cfg.Scoring.Keyword)
	assert.Equal(t, 0.15, cfg.Scoring.Recency)
	assert.Equal(t, 0.10, cfg.Scoring.Authority)
	assert.Equal(t, 0.10, cfg.Scoring.Diversity)
	assert.Equal(t, 0.05, cfg.Scoring.Position)

	// Batch scheduler
	assert.Equal(t, 10, cfg.Batch.Size)
	assert.Equal(t, 3, cfg.Batch.Concurrency)

	// Rerank blend
	assert.Equal(t, 0.7, cfg.Rerank.LLMWeight)
	assert.Equal(t, 0.3, cfg.Rerank.CompositeWeight)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Retrieval, cfg.Retrieval)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
retrieval:
  semantic_weight: 0.7
  hyde_weight: 0.0
  keyword_weight: 0.2
  metadata_weight: 0.1
  rrf_constant: 30
  max_results: 5
  per_strategy_k: 10
  max_keywords: 3
  hyde_enabled: false
  distance_threshold: 2.0
  fallback_distance_threshold: 5.0
batch:
  size: 25
  concurrency: 2
  job_retention: 5m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Retrieval.SemanticWeight)
	assert.Equal(t, 30, cfg.Retrieval.RRFConstant)
	assert.False(t, cfg.Retrieval.HyDEEnabled)
	assert.Equal(t, 25, cfg.Batch.Size)
	assert.Equal(t, 5*time.Minute, cfg.Batch.JobRetention)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("RAG_RRF_CONSTANT", "90")
	t.Setenv("RAG_HYDE_ENABLED", "false")
	t.Setenv("RAG_BATCH_SIZE", "4")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Retrieval.RRFConstant)
	assert.False(t, cfg.Retrieval.HyDEEnabled)
	assert.Equal(t, 4, cfg.Batch.Size)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{{nope"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.SemanticWeight = 0.9 // sum now 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Scoring.Semantic = 0.5 // sum now 1.15
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Batch.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Rerank.LLMWeight = 0.5 // blend sum 0.8
	assert.Error(t, cfg.Validate())
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Retrieval.MaxResults = 42
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Retrieval.MaxResults)
}
