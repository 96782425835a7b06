package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
)

func TestParseRerankScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{"bare number", "7", 7},
		{"number in sentence", "I would rate this passage 8 out of 10.", 8},
		{"ten", "10", 10},
		{"leading whitespace", "  3\n", 3},
		{"no number", "highly relevant", NeutralRerankScore},
		{"empty", "", NeutralRerankScore},
		{"zero out of range", "0", NeutralRerankScore},
		{"large number ignored", "9000", NeutralRerankScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRerankScore(tt.response))
		})
	}
}

func TestOllamaOracle_GenerateUsesTierModel(t *testing.T) {
	var seenModels []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seenModels = append(seenModels, req.Model)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "generated text", Done: true})
	}))
	defer srv.Close()

	o := NewOllamaOracle(OllamaConfig{Host: srv.URL, FastModel: "fast-m", SynthesisModel: "synth-m"})
	defer func() { _ = o.Close() }()
	ctx := context.Background()

	out, err := o.Generate(ctx, "prompt", GenerateOptions{Tier: TierFast})
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)

	_, err = o.Generate(ctx, "prompt", GenerateOptions{Tier: TierSynthesis})
	require.NoError(t, err)

	assert.Equal(t, []string{"fast-m", "synth-m"}, seenModels)
}

func TestOllamaOracle_TimeoutIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	o := NewOllamaOracle(OllamaConfig{Host: srv.URL})
	defer func() { _ = o.Close() }()

	_, err := o.Generate(context.Background(), "prompt", GenerateOptions{Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, ragerr.ErrCodeOracleTimeout, ragerr.CodeOf(err))
	assert.True(t, ragerr.IsRetryable(err))
}

func TestOllamaOracle_ServerErrorIsOracleUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewOllamaOracle(OllamaConfig{Host: srv.URL})
	defer func() { _ = o.Close() }()

	_, err := o.Generate(context.Background(), "prompt", GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, ragerr.ErrCodeOracleUnavailable, ragerr.CodeOf(err))
}

func TestOllamaOracle_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	o := NewOllamaOracle(OllamaConfig{Host: srv.URL})
	defer func() { _ = o.Close() }()
	assert.True(t, o.Available(context.Background()))

	down := NewOllamaOracle(OllamaConfig{Host: "http://127.0.0.1:1"})
	defer func() { _ = down.Close() }()
	assert.False(t, down.Available(context.Background()))
}

func TestUnavailable_AlwaysFails(t *testing.T) {
	var o Oracle = Unavailable{}
	_, err := o.Generate(context.Background(), "prompt", GenerateOptions{})
	assert.ErrorIs(t, err, ErrOracleDown)
	assert.False(t, o.Available(context.Background()))
}

func TestPrompts_ContainQuestion(t *testing.T) {
	q := "what is virtual memory"
	assert.Contains(t, RewritePrompt(q), q)
	assert.Contains(t, HyDEPrompt(q), q)
	assert.Contains(t, RerankPrompt(q, "passage text"), "passage text")
	assert.Contains(t, SynthesisPrompt(q, "ctx"), "ctx")
}
