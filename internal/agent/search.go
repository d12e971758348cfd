// ABOUTME: SearchAgent is the retrieval+generation pipeline behind each focus mode.
// ABOUTME: Retrieves via SearxNG, optionally reranks by embedding similarity, then streams the answer.

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/2389/quorum-gateway/internal/model"
	"github.com/2389/quorum-gateway/internal/searxng"
)

// maxSources caps the source list emitted by one agent.
const maxSources = 10

// WebSearcher is the retrieval backend for search-enabled modes.
// *searxng.Client satisfies it.
type WebSearcher interface {
	Search(ctx context.Context, query string, opts searxng.Options) ([]searxng.Result, []string, error)
}

// ModeConfig describes one focus mode's pipeline.
type ModeConfig struct {
	Key             string
	Description     string
	SearchWeb       bool
	Engines         []string
	PrioritySources []string // hosts ordered before other results
	Rerank          bool
	RerankThreshold float64
	SystemPrompt    string
}

// SearchAgent implements Agent for one focus mode.
type SearchAgent struct {
	cfg      ModeConfig
	searcher WebSearcher
	logger   *slog.Logger
}

// NewSearchAgent creates an agent for the given mode configuration.
func NewSearchAgent(cfg ModeConfig, searcher WebSearcher, logger *slog.Logger) *SearchAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchAgent{
		cfg:      cfg,
		searcher: searcher,
		logger:   logger.With("component", "agent", "mode", cfg.Key),
	}
}

// Name returns the focus mode key.
func (a *SearchAgent) Name() string {
	return a.cfg.Key
}

// Invoke starts the pipeline and returns its envelope stream.
func (a *SearchAgent) Invoke(ctx context.Context, req Request) (<-chan Envelope, error) {
	if req.Chat == nil {
		return nil, fmt.Errorf("agent %s: chat model is required", a.cfg.Key)
	}

	out := make(chan Envelope, 16)
	go a.run(ctx, req, out)
	return out, nil
}

func (a *SearchAgent) run(ctx context.Context, req Request, out chan<- Envelope) {
	defer close(out)

	var sources []Source
	if a.cfg.SearchWeb {
		retrieved, err := a.retrieve(ctx, req)
		if err != nil {
			a.logger.Warn("retrieval failed", "error", err)
			a.send(ctx, out, ErrorEnvelope(err.Error()))
			return
		}
		sources = retrieved
		if !a.send(ctx, out, SourcesEnvelope(sources)) {
			return
		}
	}

	deltas, errs := req.Chat.Generate(ctx, a.buildRequest(req, sources))
	for delta := range deltas {
		if !a.send(ctx, out, ResponseEnvelope(delta.Text)) {
			return
		}
	}
	if err := <-errs; err != nil {
		a.logger.Warn("generation failed", "error", err)
		a.send(ctx, out, ErrorEnvelope(err.Error()))
		return
	}

	a.send(ctx, out, EndEnvelope())
}

// send forwards an envelope unless the request has been cancelled.
func (a *SearchAgent) send(ctx context.Context, out chan<- Envelope, env Envelope) bool {
	select {
	case out <- env:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *SearchAgent) retrieve(ctx context.Context, req Request) ([]Source, error) {
	results, _, err := a.searcher.Search(ctx, req.Query, searxng.Options{Engines: a.cfg.Engines})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		sources = append(sources, Source{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Content,
			Metadata: map[string]string{
				"url": r.URL,
			},
		})
	}

	if len(a.cfg.PrioritySources) > 0 {
		sources = a.prioritize(sources)
	}

	if a.cfg.Rerank && req.Embedder != nil && len(sources) > 0 {
		reranked, err := a.rerank(ctx, req.Embedder, req.Query, sources)
		if err != nil {
			// Rerank is best-effort; fall back to search order.
			a.logger.Warn("rerank failed, keeping search order", "error", err)
		} else {
			sources = reranked
		}
	}

	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	return sources, nil
}

// prioritize stably moves results from priority hosts ahead of the rest.
func (a *SearchAgent) prioritize(sources []Source) []Source {
	priority := make([]Source, 0, len(sources))
	rest := make([]Source, 0, len(sources))
	for _, s := range sources {
		if a.isPriorityHost(s.URL) {
			priority = append(priority, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(priority, rest...)
}

func (a *SearchAgent) isPriorityHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, p := range a.cfg.PrioritySources {
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}

// rerank orders sources by cosine similarity between the query embedding and
// each source snippet, dropping sources below the mode's threshold.
func (a *SearchAgent) rerank(ctx context.Context, embedder model.Embedder, query string, sources []Source) ([]Source, error) {
	texts := make([]string, 0, len(sources)+1)
	texts = append(texts, query)
	for _, s := range sources {
		snippet := s.Content
		if snippet == "" {
			snippet = s.Title
		}
		texts = append(texts, snippet)
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	queryVec := vectors[0]
	type scored struct {
		source Source
		score  float64
	}
	kept := make([]scored, 0, len(sources))
	for i, s := range sources {
		score := cosineSimilarity(queryVec, vectors[i+1])
		if score < a.cfg.RerankThreshold {
			continue
		}
		kept = append(kept, scored{source: s, score: score})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	ordered := make([]Source, len(kept))
	for i, k := range kept {
		ordered[i] = k.source
	}
	return ordered, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// buildRequest assembles the chat request: system prompt with cited context,
// prior history, then the query.
func (a *SearchAgent) buildRequest(req Request, sources []Source) model.Request {
	var system strings.Builder
	system.WriteString(a.cfg.SystemPrompt)
	if req.ResponseMode == ModeExplanatory {
		system.WriteString("\n\nExplain your reasoning step by step in an accessible, instructive register.")
	} else {
		system.WriteString("\n\nAnswer in a concise, formal register.")
	}
	if len(sources) > 0 {
		system.WriteString("\n\nContext sources (cite with [number]):\n")
		for i, s := range sources {
			fmt.Fprintf(&system, "[%d] %s (%s)\n%s\n", i+1, s.Title, s.URL, s.Content)
		}
	}

	messages := []model.Message{{Role: model.RoleSystem, Content: system.String()}}
	for _, h := range req.History {
		role := model.RoleUser
		if h.Role == RoleAI {
			role = model.RoleAssistant
		}
		messages = append(messages, model.Message{Role: role, Content: h.Text})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: req.Query})

	return model.Request{Messages: messages, Temperature: 0.7}
}
