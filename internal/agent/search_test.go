package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quorum-gateway/internal/model"
	"github.com/2389/quorum-gateway/internal/searxng"
)

type fakeSearcher struct {
	results []searxng.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, opts searxng.Options) ([]searxng.Result, []string, error) {
	f.queries = append(f.queries, query)
	return f.results, nil, f.err
}

// drain consumes a stream and returns all envelopes.
func drain(t *testing.T, ch <-chan Envelope) []Envelope {
	t.Helper()
	var envelopes []Envelope
	for env := range ch {
		envelopes = append(envelopes, env)
	}
	return envelopes
}

func TestSearchAgent_StreamSequence(t *testing.T) {
	searcher := &fakeSearcher{results: []searxng.Result{
		{Title: "One", URL: "https://example.com/1", Content: "first"},
		{Title: "Two", URL: "https://example.com/2", Content: "second"},
	}}
	chat := &model.MockModel{Chunks: []string{"Hel", "lo"}}

	a := NewSearchAgent(ModeConfig{Key: "webSearch", SearchWeb: true}, searcher, nil)
	ch, err := a.Invoke(context.Background(), Request{Query: "hello", Chat: chat})
	require.NoError(t, err)

	envelopes := drain(t, ch)
	require.Len(t, envelopes, 4)

	assert.Equal(t, EnvelopeSources, envelopes[0].Type)
	require.Len(t, envelopes[0].Sources, 2)
	assert.Equal(t, "https://example.com/1", envelopes[0].Sources[0].URL)

	assert.Equal(t, "Hel", envelopes[1].Chunk)
	assert.Equal(t, "lo", envelopes[2].Chunk)
	assert.Equal(t, EnvelopeEnd, envelopes[3].Type)
}

func TestSearchAgent_NoWebSearch_NoSourcesEnvelope(t *testing.T) {
	chat := &model.MockModel{Chunks: []string{"done"}}

	a := NewSearchAgent(ModeConfig{Key: "writingAssistant"}, nil, nil)
	ch, err := a.Invoke(context.Background(), Request{Query: "draft this", Chat: chat})
	require.NoError(t, err)

	envelopes := drain(t, ch)
	require.Len(t, envelopes, 2)
	assert.Equal(t, EnvelopeResponse, envelopes[0].Type)
	assert.Equal(t, EnvelopeEnd, envelopes[1].Type)
}

func TestSearchAgent_SearchFailure_ErrorEnvelope(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("searxng down")}
	chat := &model.MockModel{Chunks: []string{"unused"}}

	a := NewSearchAgent(ModeConfig{Key: "webSearch", SearchWeb: true}, searcher, nil)
	ch, err := a.Invoke(context.Background(), Request{Query: "q", Chat: chat})
	require.NoError(t, err)

	envelopes := drain(t, ch)
	require.Len(t, envelopes, 1)
	assert.Equal(t, EnvelopeError, envelopes[0].Type)
	assert.Contains(t, envelopes[0].Err, "searxng down")
	assert.Zero(t, chat.Calls, "model must not run after retrieval failure")
}

func TestSearchAgent_GenerationFailure_ErrorAfterSources(t *testing.T) {
	searcher := &fakeSearcher{results: []searxng.Result{{Title: "One", URL: "https://example.com/1"}}}
	chat := &model.MockModel{Err: errors.New("model unavailable")}

	a := NewSearchAgent(ModeConfig{Key: "webSearch", SearchWeb: true}, searcher, nil)
	ch, err := a.Invoke(context.Background(), Request{Query: "q", Chat: chat})
	require.NoError(t, err)

	envelopes := drain(t, ch)
	require.Len(t, envelopes, 2)
	assert.Equal(t, EnvelopeSources, envelopes[0].Type)
	assert.Equal(t, EnvelopeError, envelopes[1].Type)
}

func TestSearchAgent_RerankFiltersAndOrders(t *testing.T) {
	searcher := &fakeSearcher{results: []searxng.Result{
		{Title: "Low", URL: "https://example.com/low", Content: "low"},
		{Title: "High", URL: "https://example.com/high", Content: "high"},
		{Title: "Mid", URL: "https://example.com/mid", Content: "mid"},
	}}
	embedder := &model.MockEmbedder{
		Vectors: map[string][]float64{
			"q":    {1, 0},
			"low":  {0, 1},          // similarity 0
			"high": {1, 0},          // similarity 1
			"mid":  {0.7071, 0.7071}, // similarity ~0.71
		},
	}
	chat := &model.MockModel{Chunks: []string{"ok"}}

	a := NewSearchAgent(ModeConfig{
		Key:             "webSearch",
		SearchWeb:       true,
		Rerank:          true,
		RerankThreshold: 0.3,
	}, searcher, nil)
	ch, err := a.Invoke(context.Background(), Request{Query: "q", Chat: chat, Embedder: embedder})
	require.NoError(t, err)

	envelopes := drain(t, ch)
	require.Equal(t, EnvelopeSources, envelopes[0].Type)
	sources := envelopes[0].Sources
	require.Len(t, sources, 2)
	assert.Equal(t, "https://example.com/high", sources[0].URL)
	assert.Equal(t, "https://example.com/mid", sources[1].URL)
}

func TestSearchAgent_PrioritySourcesFirst(t *testing.T) {
	searcher := &fakeSearcher{results: []searxng.Result{
		{Title: "Elsewhere", URL: "https://elsewhere.example/a"},
		{Title: "Support", URL: "https://support.zoom.us/hc/article"},
		{Title: "Other", URL: "https://other.example/b"},
	}}
	chat := &model.MockModel{Chunks: []string{"ok"}}

	a := NewSearchAgent(ModeConfig{
		Key:             "generalAgent",
		SearchWeb:       true,
		PrioritySources: []string{"support.zoom.us"},
	}, searcher, nil)
	ch, err := a.Invoke(context.Background(), Request{Query: "q", Chat: chat})
	require.NoError(t, err)

	envelopes := drain(t, ch)
	sources := envelopes[0].Sources
	require.Len(t, sources, 3)
	assert.Equal(t, "https://support.zoom.us/hc/article", sources[0].URL)
}

func TestSearchAgent_PromptIncludesSourcesAndHistory(t *testing.T) {
	a := NewSearchAgent(ModeConfig{Key: "webSearch", SystemPrompt: "You are a web search assistant."}, nil, nil)

	req := Request{
		Query:        "follow-up",
		ResponseMode: ModeExplanatory,
		History: []HistoryMessage{
			{Role: RoleHuman, Text: "earlier question"},
			{Role: RoleAI, Text: "earlier answer"},
		},
	}
	sources := []Source{{URL: "https://example.com", Title: "Doc", Content: "body"}}

	built := a.buildRequest(req, sources)
	require.Len(t, built.Messages, 4)
	assert.Equal(t, model.RoleSystem, built.Messages[0].Role)
	assert.True(t, strings.Contains(built.Messages[0].Content, "[1] Doc (https://example.com)"))
	assert.Equal(t, model.RoleUser, built.Messages[1].Role)
	assert.Equal(t, model.RoleAssistant, built.Messages[2].Role)
	assert.Equal(t, "follow-up", built.Messages[3].Content)
}
