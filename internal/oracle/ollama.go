package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
)

// ErrOracleDown indicates the generation backend cannot be reached.
var ErrOracleDown = errors.New("generation oracle unavailable")

// DefaultOllamaHost is the default Ollama endpoint.
const DefaultOllamaHost = "http://localhost:11434"

const connectProbeTimeout = 5 * time.Second

// OllamaConfig configures the Ollama-backed oracle.
type OllamaConfig struct {
	Host string

	// FastModel and SynthesisModel map the two tiers to Ollama models.
	FastModel      string
	SynthesisModel string

	FastTimeout      time.Duration
	SynthesisTimeout time.Duration
}

// OllamaOracle generates text via Ollama's /api/generate endpoint.
type OllamaOracle struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaOracle creates an Ollama oracle client.
func NewOllamaOracle(cfg OllamaConfig) *OllamaOracle {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.FastModel == "" {
		cfg.FastModel = "qwen3:0.6b"
	}
	if cfg.SynthesisModel == "" {
		cfg.SynthesisModel = "llama3.1:8b"
	}
	if cfg.FastTimeout <= 0 {
		cfg.FastTimeout = DefaultFastTimeout
	}
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = DefaultSynthesisTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     30 * time.Second,
	}
	return &OllamaOracle{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
	}
}

// Generate produces text for the prompt on the configured tier.
func (o *OllamaOracle) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := o.config.FastModel
	timeout := o.config.FastTimeout
	if opts.Tier == TierSynthesis {
		model = o.config.SynthesisModel
		timeout = o.config.SynthesisTimeout
	}
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(ollamaGenerateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", ragerr.Wrapf(ragerr.ErrCodeOracleTimeout, err, "generate call timed out after %s", timeout)
		}
		return "", ragerr.Wrapf(ragerr.ErrCodeOracleUnavailable, err, "generate call failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", ragerr.New(ragerr.ErrCodeOracleUnavailable,
			fmt.Sprintf("generate returned %d: %s", resp.StatusCode, string(data)))
	}

	var parsed ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", ragerr.Wrapf(ragerr.ErrCodeOracleMalformed, err, "failed to decode generate response")
	}
	return parsed.Response, nil
}

// Available probes the daemon with a short timeout.
func (o *OllamaOracle) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, connectProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (o *OllamaOracle) Close() error {
	o.transport.CloseIdleConnections()
	return nil
}

var _ Oracle = (*OllamaOracle)(nil)
