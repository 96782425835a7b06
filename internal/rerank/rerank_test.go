package rerank

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/cache"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/config"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/oracle"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

type scriptedOracle struct {
	generate  func(prompt string) (string, error)
	calls     atomic.Int32
	available bool
}

func (o *scriptedOracle) Generate(ctx context.Context, prompt string, opts oracle.GenerateOptions) (string, error) {
	o.calls.Add(1)
	return o.generate(prompt)
}

func (o *scriptedOracle) Available(ctx context.Context) bool { return o.available }

func (o *scriptedOracle) Close() error { return nil }

func rerankConfig() config.RerankConfig {
	return config.RerankConfig{
		Enabled:         true,
		CallTimeout:     time.Second,
		LLMWeight:       0.7,
		CompositeWeight: 0.3,
	}
}

func cand(id, content string, composite float64) Candidate {
	return Candidate{
		Parent:         &store.ParentChunk{ID: id, Content: content},
		CompositeScore: composite,
	}
}

func TestReranker_DisabledPreservesCompositeOrder(t *testing.T) {
	cfg := rerankConfig()
	cfg.Enabled = false

	orc := &scriptedOracle{available: true, generate: func(string) (string, error) { return "10", nil }}
	r := NewReranker(orc, nil, cfg)

	ranked := r.Rerank(context.Background(), []Candidate{
		cand("a", "first", 0.9),
		cand("b", "second", 0.5),
	}, "question")

	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Parent.ID)
	assert.InDelta(t, 0.9, ranked[0].FinalScore, 1e-9)
	assert.Equal(t, 0, ranked[0].LLMScore)
	assert.Equal(t, int32(0), orc.calls.Load(), "disabled pass must not call the oracle")
}

func TestReranker_OracleDownPreservesCompositeOrder(t *testing.T) {
	orc := &scriptedOracle{available: false, generate: func(string) (string, error) { return "10", nil }}
	r := NewReranker(orc, nil, rerankConfig())

	ranked := r.Rerank(context.Background(), []Candidate{cand("a", "x", 0.4)}, "question")
	require.Len(t, ranked, 1)
	assert.InDelta(t, 0.4, ranked[0].FinalScore, 1e-9)
}

func TestReranker_BlendsAndSorts(t *testing.T) {
	orc := &scriptedOracle{available: true, generate: func(prompt string) (string, error) {
		if strings.Contains(prompt, "high relevance passage") {
			return "The passage deserves a 9.", nil
		}
		return "2", nil
	}}
	r := NewReranker(orc, nil, rerankConfig())

	ranked := r.Rerank(context.Background(), []Candidate{
		cand("low", "low relevance passage", 0.8),
		cand("high", "high relevance passage", 0.2),
	}, "question")
	require.Len(t, ranked, 2)

	// high: 0.7*0.9 + 0.3*0.2 = 0.69; low: 0.7*0.2 + 0.3*0.8 = 0.38
	assert.Equal(t, "high", ranked[0].Parent.ID)
	assert.InDelta(t, 0.69, ranked[0].FinalScore, 1e-9)
	assert.Equal(t, 9, ranked[0].LLMScore)
	assert.Equal(t, "low", ranked[1].Parent.ID)
	assert.InDelta(t, 0.38, ranked[1].FinalScore, 1e-9)
}

func TestReranker_CallFailureYieldsNeutralScore(t *testing.T) {
	orc := &scriptedOracle{available: true, generate: func(string) (string, error) {
		return "", fmt.Errorf("oracle exploded")
	}}
	r := NewReranker(orc, nil, rerankConfig())

	ranked := r.Rerank(context.Background(), []Candidate{cand("a", "x", 0.5)}, "question")
	require.Len(t, ranked, 1)
	assert.Equal(t, oracle.NeutralRerankScore, ranked[0].LLMScore)
	assert.InDelta(t, 0.7*0.5+0.3*0.5, ranked[0].FinalScore, 1e-9)
}

func TestReranker_UnparsableResponseYieldsNeutralScore(t *testing.T) {
	orc := &scriptedOracle{available: true, generate: func(string) (string, error) {
		return "extremely relevant, trust me", nil
	}}
	r := NewReranker(orc, nil, rerankConfig())

	ranked := r.Rerank(context.Background(), []Candidate{cand("a", "x", 0.5)}, "question")
	assert.Equal(t, oracle.NeutralRerankScore, ranked[0].LLMScore)
}

func TestReranker_CachesScoresByContentHash(t *testing.T) {
	orc := &scriptedOracle{available: true, generate: func(string) (string, error) { return "7", nil }}
	scoreCache := cache.New[map[string]int]("rerank", 10)
	r := NewReranker(orc, scoreCache, rerankConfig())

	candidates := []Candidate{cand("a", "stable content", 0.5)}

	first := r.Rerank(context.Background(), candidates, "what is paging")
	require.Len(t, first, 1)
	assert.False(t, first[0].FromCache)
	assert.Equal(t, int32(1), orc.calls.Load())

	second := r.Rerank(context.Background(), candidates, "what is paging")
	require.Len(t, second, 1)
	assert.True(t, second[0].FromCache)
	assert.Equal(t, 7, second[0].LLMScore)
	assert.Equal(t, int32(1), orc.calls.Load(), "cached score must skip the oracle")
}

func TestReranker_EmptyInput(t *testing.T) {
	r := NewReranker(nil, nil, rerankConfig())
	assert.Nil(t, r.Rerank(context.Background(), nil, "question"))
}
