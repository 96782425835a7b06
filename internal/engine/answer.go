package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/cache"
	ragerr "github.com/sanjibRanjan/RAG-pipeline-sub002/internal/errors"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/oracle"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/rerank"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/retrieval"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/telemetry"
)

// fallbackExcerptChars bounds the raw excerpt served when the
// synthesis oracle is down.
const fallbackExcerptChars = 600

// confidenceTopN is how many top blended scores feed the confidence
// estimate.
const confidenceTopN = 3

// Source is one context chunk behind an answer.
type Source struct {
	ParentID   string  `json:"parentId"`
	DocumentID string  `json:"documentId,omitempty"`
	Score      float64 `json:"score"`
	Votes      int     `json:"votes"`
	LLMScore   int     `json:"llmScore,omitempty"`
}

// Answer is the engine's response to a question.
type Answer struct {
	Question string   `json:"question"`
	Text     string   `json:"text"`
	Sources  []Source `json:"sources,omitempty"`

	// RetrievalMethod reports how candidates were found, including
	// degraded modes.
	RetrievalMethod string `json:"retrievalMethod"`

	// Cached is true when the answer came from the answer cache.
	Cached bool `json:"cached"`

	// Fallback is true when the text is a raw excerpt instead of a
	// generated answer.
	Fallback bool `json:"fallback"`

	// Confidence is the mean of the top blended scores, in [0,1].
	Confidence float64 `json:"confidence"`

	// ExpansionRatio reports narrative assembly growth.
	ExpansionRatio float64 `json:"expansionRatio,omitempty"`

	// RewrittenQuery is the retrieval query actually used.
	RewrittenQuery string `json:"rewrittenQuery,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Answer runs the full query pipeline: cache check, query rewrite,
// multi-strategy retrieval, composite scoring, hierarchical expansion,
// re-ranking, narrative assembly, and synthesis. Every dependency
// failure past input validation degrades instead of erroring.
func (e *Engine) Answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ragerr.New(ragerr.ErrCodeEmptyQuestion, "question must not be empty")
	}
	start := time.Now()

	answerKey := cache.AnswerKey(question)
	if cached, ok := e.answerCache.Get(answerKey); ok {
		cached.Cached = true
		e.recordQuery(&cached, start)
		return &cached, nil
	}

	rewritten := e.rewriteQuery(ctx, question)

	queryEmbedding, err := e.embedder.Embed(ctx, rewritten)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.ErrCodeEmbedFailed, err)
	}

	set, err := e.retriever.Retrieve(ctx, queryEmbedding, rewritten)
	if err != nil {
		// Vector index down: serve a degraded empty answer rather than
		// failing the caller.
		slog.Warn("retrieval_unavailable", slog.String("error", err.Error()))
		e.metrics.RecordDegradedRetrieval()
		answer := e.emptyAnswer(question, rewritten, retrieval.MethodSemanticFallback)
		e.recordQuery(answer, start)
		return answer, nil
	}
	if set.RetrievalMethod != retrieval.MethodMultiStrategy {
		e.metrics.RecordDegradedRetrieval()
	}

	scored := e.scorer.Score(set.Hits, rewritten)
	scoreByChunk := make(map[string]float64, len(scored))
	for _, sc := range scored {
		scoreByChunk[sc.Hit.ChunkID] = sc.FinalScore
	}

	expanded := e.expander.Expand(set.Hits)
	if expanded.RetrievalMethod == retrieval.MethodMixedFallback && set.RetrievalMethod == retrieval.MethodMultiStrategy {
		e.metrics.RecordDegradedRetrieval()
	}
	if len(expanded.Parents) == 0 {
		answer := e.emptyAnswer(question, rewritten, expanded.RetrievalMethod)
		e.recordQuery(answer, start)
		e.answerCache.Set(answerKey, *answer)
		return answer, nil
	}

	candidates := make([]rerank.Candidate, 0, len(expanded.Parents))
	for _, p := range expanded.Parents {
		candidates = append(candidates, rerank.Candidate{
			Parent:         p.Parent,
			CompositeScore: parentComposite(p, scoreByChunk),
		})
	}
	ranked := e.reranker.Rerank(ctx, candidates, question)

	assembled := e.assembler.Assemble(ranked[0].Parent)

	answer := &Answer{
		Question:        question,
		RetrievalMethod: expanded.RetrievalMethod,
		Confidence:      confidence(ranked),
		ExpansionRatio:  assembled.ExpansionRatio,
		RewrittenQuery:  rewritten,
		CreatedAt:       time.Now(),
	}
	votesByParent := make(map[string]int, len(expanded.Parents))
	for _, p := range expanded.Parents {
		votesByParent[p.Parent.ID] = p.Votes
	}
	for _, r := range ranked {
		answer.Sources = append(answer.Sources, Source{
			ParentID:   r.Parent.ID,
			DocumentID: r.Parent.DocumentID,
			Score:      r.FinalScore,
			Votes:      votesByParent[r.Parent.ID],
			LLMScore:   r.LLMScore,
		})
	}

	e.synthesize(ctx, answer, assembled.Context, ranked[0].Parent.Content)

	e.answerCache.Set(answerKey, *answer)
	e.recordQuery(answer, start)
	return answer, nil
}

// rewriteQuery reformulates the question through the fast oracle tier,
// cached by raw question text. Failures fall back to the original
// question.
func (e *Engine) rewriteQuery(ctx context.Context, question string) string {
	if cached, ok := e.rewriteCache.Get(question); ok {
		return cached
	}
	if e.oracle == nil || !e.oracle.Available(ctx) {
		return question
	}

	out, err := e.oracle.Generate(ctx, oracle.RewritePrompt(question),
		oracle.GenerateOptions{Tier: oracle.TierFast})
	if err != nil {
		slog.Debug("query_rewrite_failed", slog.String("error", err.Error()))
		return question
	}

	rewritten := sanitizeRewrite(out)
	if rewritten == "" {
		return question
	}
	e.rewriteCache.Set(question, rewritten)
	return rewritten
}

// synthesize fills in the answer text, falling back to a raw excerpt
// of the top chunk when the synthesis tier is unavailable.
func (e *Engine) synthesize(ctx context.Context, answer *Answer, contextText string, topContent string) {
	if e.oracle != nil && e.oracle.Available(ctx) {
		text, err := e.oracle.Generate(ctx, oracle.SynthesisPrompt(answer.Question, contextText),
			oracle.GenerateOptions{Tier: oracle.TierSynthesis})
		if err == nil && strings.TrimSpace(text) != "" {
			answer.Text = strings.TrimSpace(text)
			return
		}
		if err != nil {
			slog.Warn("synthesis_failed", slog.String("error", err.Error()))
		}
	}

	excerpt := topContent
	if len(excerpt) > fallbackExcerptChars {
		excerpt = excerpt[:fallbackExcerptChars]
	}
	answer.Text = excerpt
	answer.Fallback = true
}

// emptyAnswer is the degraded response when retrieval produced
// nothing usable.
func (e *Engine) emptyAnswer(question, rewritten, method string) *Answer {
	return &Answer{
		Question:        question,
		Text:            "No relevant information was found for this question.",
		RetrievalMethod: method,
		Fallback:        true,
		RewrittenQuery:  rewritten,
		CreatedAt:       time.Now(),
	}
}

func (e *Engine) recordQuery(answer *Answer, start time.Time) {
	e.metrics.Record(telemetry.QueryEvent{
		Question:        answer.Question,
		RetrievalMethod: answer.RetrievalMethod,
		ResultCount:     len(answer.Sources),
		Cached:          answer.Cached,
		Fallback:        answer.Fallback,
		Latency:         time.Since(start),
	})
}

// parentComposite is the parent's composite score: the best final
// score among its child hits.
func parentComposite(p retrieval.ExpandedParent, scoreByChunk map[string]float64) float64 {
	best := 0.0
	for _, c := range p.ChildHits {
		if s, ok := scoreByChunk[c.ChunkID]; ok && s > best {
			best = s
		}
	}
	return best
}

// confidence is the mean blended score of the top results.
func confidence(ranked []rerank.Ranked) float64 {
	n := confidenceTopN
	if len(ranked) < n {
		n = len(ranked)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += ranked[i].FinalScore
	}
	return sum / float64(n)
}

// sanitizeRewrite keeps the first non-empty line of the oracle's
// output, stripped of quoting.
func sanitizeRewrite(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, `"'`)
		if line != "" {
			return line
		}
	}
	return ""
}
