// Package config loads and validates engine configuration.
//
// Precedence, lowest to highest:
//  1. Built-in defaults (DefaultConfig)
//  2. YAML config file (rag.yaml)
//  3. RAG_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the YAML config file.
const ConfigFileName = "rag.yaml"

// Config is the complete engine configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Scoring    ScoringConfig    `yaml:"scoring" json:"scoring"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Batch      BatchConfig      `yaml:"batch" json:"batch"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Rerank     RerankConfig     `yaml:"rerank" json:"rerank"`
	Assemble   AssembleConfig   `yaml:"assemble" json:"assemble"`
	Caches     CachesConfig     `yaml:"caches" json:"caches"`
	Oracle     OracleConfig     `yaml:"oracle" json:"oracle"`
	LogLevel   string           `yaml:"log_level" json:"log_level"`
	LogFile    string           `yaml:"log_file" json:"log_file"`
}

// RetrievalConfig configures the multi-strategy retriever.
type RetrievalConfig struct {
	// Strategy weights for RRF fusion. They should sum to 1.0.
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	HyDEWeight     float64 `yaml:"hyde_weight" json:"hyde_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight" json:"keyword_weight"`
	MetadataWeight float64 `yaml:"metadata_weight" json:"metadata_weight"`

	// RRFConstant is the RRF smoothing parameter k (default: 60).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// MaxResults is the fused result count (default: 10).
	MaxResults int `yaml:"max_results" json:"max_results"`

	// PerStrategyK is how many candidates each strategy fetches (default: 20).
	PerStrategyK int `yaml:"per_strategy_k" json:"per_strategy_k"`

	// MaxKeywords caps salient keyword extraction (default: 3).
	MaxKeywords int `yaml:"max_keywords" json:"max_keywords"`

	// HyDEEnabled toggles hypothetical-document retrieval.
	HyDEEnabled bool `yaml:"hyde_enabled" json:"hyde_enabled"`

	// DistanceThreshold is the normal child-hit relevance cutoff (default: 2.0).
	DistanceThreshold float64 `yaml:"distance_threshold" json:"distance_threshold"`

	// FallbackDistanceThreshold is the relaxed cutoff used when no parents
	// resolve and the engine falls back to child-level results (default: 5.0).
	FallbackDistanceThreshold float64 `yaml:"fallback_distance_threshold" json:"fallback_distance_threshold"`
}

// ScoringConfig holds the composite scorer weights. They sum to 1.0.
type ScoringConfig struct {
	Semantic  float64 `yaml:"semantic" json:"semantic"`
	Keyword   float64 `yaml:"keyword" json:"keyword"`
	Recency   float64 `yaml:"recency" json:"recency"`
	Authority float64 `yaml:"authority" json:"authority"`
	Diversity float64 `yaml:"diversity" json:"diversity"`
	Position  float64 `yaml:"position" json:"position"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string        `yaml:"provider" json:"provider"` // "ollama" or "static"
	Model      string        `yaml:"model" json:"model"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	OllamaHost string        `yaml:"ollama_host" json:"ollama_host"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	CacheSize  int           `yaml:"cache_size" json:"cache_size"`
}

// BatchConfig configures the batch embedding scheduler.
type BatchConfig struct {
	// Size is the mini-batch size B (default: 10).
	Size int `yaml:"size" json:"size"`

	// Concurrency is the worker-pool cap C (default: 3).
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// JobRetention is how long completed document job records are kept
	// for status queries before garbage collection (default: 10m).
	JobRetention time.Duration `yaml:"job_retention" json:"job_retention"`
}

// StoreConfig configures the chunk hierarchy store.
type StoreConfig struct {
	// MaxSize is the parent-chunk capacity (default: 10000).
	MaxSize int `yaml:"max_size" json:"max_size"`

	// MaxAge evicts parents older than this window (default: 24h).
	MaxAge time.Duration `yaml:"max_age" json:"max_age"`
}

// RerankConfig configures the LLM re-ranking pass.
type RerankConfig struct {
	// Enabled toggles the pass entirely; when false, composite order holds.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// CallTimeout bounds each per-chunk oracle call (default: 10s).
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout"`

	// LLMWeight and CompositeWeight blend the two scores (0.7 / 0.3).
	LLMWeight       float64 `yaml:"llm_weight" json:"llm_weight"`
	CompositeWeight float64 `yaml:"composite_weight" json:"composite_weight"`
}

// AssembleConfig configures narrative assembly.
type AssembleConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// CachesConfig configures the three result caches.
type CachesConfig struct {
	RewriteMaxEntries int `yaml:"rewrite_max_entries" json:"rewrite_max_entries"`
	RerankMaxEntries  int `yaml:"rerank_max_entries" json:"rerank_max_entries"`
	AnswerMaxEntries  int `yaml:"answer_max_entries" json:"answer_max_entries"`
}

// OracleConfig configures the generation oracle client.
type OracleConfig struct {
	Host string `yaml:"host" json:"host"`

	// FastModel serves preprocessing calls: query rewrite, HyDE, rerank scores.
	FastModel string `yaml:"fast_model" json:"fast_model"`

	// SynthesisModel serves final answer generation.
	SynthesisModel string `yaml:"synthesis_model" json:"synthesis_model"`

	FastTimeout      time.Duration `yaml:"fast_timeout" json:"fast_timeout"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout" json:"synthesis_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Retrieval: RetrievalConfig{
			SemanticWeight:            0.4,
			HyDEWeight:                0.3,
			KeywordWeight:             0.2,
			MetadataWeight:            0.1,
			RRFConstant:               60,
			MaxResults:                10,
			PerStrategyK:              20,
			MaxKeywords:               3,
			HyDEEnabled:               true,
			DistanceThreshold:         2.0,
			FallbackDistanceThreshold: 5.0,
		},
		Scoring: ScoringConfig{
			Semantic:  0.35,
			Keyword:   0.25,
			Recency:   0.15,
			Authority: 0.10,
			Diversity: 0.10,
			Position:  0.05,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Dimensions: 0, // auto-detect from embedder
			OllamaHost: "",
			Timeout:    60 * time.Second,
			CacheSize:  1000,
		},
		Batch: BatchConfig{
			Size:         10,
			Concurrency:  3,
			JobRetention: 10 * time.Minute,
		},
		Store: StoreConfig{
			MaxSize: 10000,
			MaxAge:  24 * time.Hour,
		},
		Rerank: RerankConfig{
			Enabled:         true,
			CallTimeout:     10 * time.Second,
			LLMWeight:       0.7,
			CompositeWeight: 0.3,
		},
		Assemble: AssembleConfig{Enabled: true},
		Caches: CachesConfig{
			RewriteMaxEntries: 500,
			RerankMaxEntries:  500,
			AnswerMaxEntries:  200,
		},
		Oracle: OracleConfig{
			Host:             "",
			FastModel:        "qwen3:0.6b",
			SynthesisModel:   "llama3.1:8b",
			FastTimeout:      15 * time.Second,
			SynthesisTimeout: 60 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads the config file from dir (if present), applies env
// overrides, and validates. A missing file is not an error; defaults
// plus env apply.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults apply.
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML to dir.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644)
}

// applyEnvOverrides applies RAG_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAG_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retrieval.RRFConstant = n
		}
	}
	if v := os.Getenv("RAG_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retrieval.MaxResults = n
		}
	}
	if v := os.Getenv("RAG_HYDE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Retrieval.HyDEEnabled = b
		}
	}
	if v := os.Getenv("RAG_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Batch.Size = n
		}
	}
	if v := os.Getenv("RAG_BATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Batch.Concurrency = n
		}
	}
	if v := os.Getenv("RAG_RERANK_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Rerank.Enabled = b
		}
	}
	if v := os.Getenv("RAG_ASSEMBLE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Assemble.Enabled = b
		}
	}
	if v := os.Getenv("RAG_OLLAMA_HOST"); v != "" {
		c.Oracle.Host = v
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("RAG_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("RAG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks ranges and weight sums.
func (c *Config) Validate() error {
	r := c.Retrieval
	if r.RRFConstant <= 0 {
		return fmt.Errorf("retrieval.rrf_constant must be positive, got %d", r.RRFConstant)
	}
	if r.MaxResults <= 0 {
		return fmt.Errorf("retrieval.max_results must be positive, got %d", r.MaxResults)
	}
	strategySum := r.SemanticWeight + r.HyDEWeight + r.KeywordWeight + r.MetadataWeight
	if !approxOne(strategySum) {
		return fmt.Errorf("retrieval strategy weights must sum to 1.0, got %.3f", strategySum)
	}

	s := c.Scoring
	scoreSum := s.Semantic + s.Keyword + s.Recency + s.Authority + s.Diversity + s.Position
	if !approxOne(scoreSum) {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", scoreSum)
	}

	if c.Batch.Size <= 0 {
		return fmt.Errorf("batch.size must be positive, got %d", c.Batch.Size)
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	if c.Store.MaxSize <= 0 {
		return fmt.Errorf("store.max_size must be positive, got %d", c.Store.MaxSize)
	}
	if !approxOne(c.Rerank.LLMWeight + c.Rerank.CompositeWeight) {
		return fmt.Errorf("rerank blend weights must sum to 1.0, got %.3f",
			c.Rerank.LLMWeight+c.Rerank.CompositeWeight)
	}
	if c.Caches.RewriteMaxEntries <= 0 || c.Caches.RerankMaxEntries <= 0 || c.Caches.AnswerMaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive")
	}
	return nil
}

func approxOne(v float64) bool {
	const eps = 0.001
	return v > 1.0-eps && v < 1.0+eps
}
