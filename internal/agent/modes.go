// ABOUTME: Builtin focus mode definitions and registry construction.
// ABOUTME: Mirrors the selectable agent variants exposed to callers.

package agent

import "log/slog"

// DefaultMode is used when a request names no focus mode.
const DefaultMode = "generalAgent"

// BuiltinModes returns the focus modes shipped with the gateway, in the
// order they are registered.
func BuiltinModes() []ModeConfig {
	return []ModeConfig{
		{
			Key:             "generalAgent",
			Description:     "General product support search, prioritizing official support and community sites",
			SearchWeb:       true,
			Rerank:          true,
			RerankThreshold: 0.3,
			PrioritySources: []string{"support.zoom.us", "community.zoom.us", "zoom.us"},
			SystemPrompt: "You are a product support assistant. Answer using the provided context sources, " +
				"preferring official support articles and community posts. Cite every fact with [number] " +
				"notation referring to the context source it came from. Format the answer in Markdown.",
		},
		{
			Key:             "jiraAgent",
			Description:     "Ticket analysis against tracked issues and the web",
			SearchWeb:       true,
			Rerank:          true,
			RerankThreshold: 0,
			SystemPrompt: "You are a ticket analysis assistant. Relate the question to known issues from " +
				"the provided context, summarize affected components and workarounds, and cite sources " +
				"with [number] notation.",
		},
		{
			Key:         "logAnalyzerAgent",
			Description: "Log analysis without web retrieval",
			SearchWeb:   false,
			SystemPrompt: "You are a log analysis assistant. Examine the log excerpts in the question, " +
				"identify errors and their likely root causes, and propose concrete next diagnostic steps.",
		},
		{
			Key:             "webSearch",
			Description:     "General web search",
			SearchWeb:       true,
			Rerank:          true,
			RerankThreshold: 0.3,
			SystemPrompt: "You are a web search assistant. Answer the question from the provided context " +
				"sources and cite each fact with [number] notation.",
		},
		{
			Key:             "academicSearch",
			Description:     "Academic literature search",
			SearchWeb:       true,
			Engines:         []string{"arxiv", "google scholar", "pubmed"},
			Rerank:          true,
			RerankThreshold: 0,
			SystemPrompt: "You are an academic research assistant. Answer from the provided papers and " +
				"abstracts, note methodology where relevant, and cite with [number] notation.",
		},
		{
			Key:         "writingAssistant",
			Description: "Writing help without retrieval",
			SearchWeb:   false,
			SystemPrompt: "You are a writing assistant. Help the user draft, rework, or polish text. " +
				"Do not fabricate citations.",
		},
		{
			Key:         "wolframAlphaSearch",
			Description: "Computational and factual queries via Wolfram Alpha",
			SearchWeb:   true,
			Engines:     []string{"wolframalpha"},
			Rerank:      false,
			SystemPrompt: "You are a computational knowledge assistant. Answer calculations, conversions, " +
				"and factual queries from the provided results and cite with [number] notation.",
		},
		{
			Key:             "redditSearch",
			Description:     "Discussion and opinion search on Reddit",
			SearchWeb:       true,
			Engines:         []string{"reddit"},
			Rerank:          true,
			RerankThreshold: 0.3,
			SystemPrompt: "You are a discussion search assistant. Summarize opinions and experiences from " +
				"the provided threads and cite with [number] notation.",
		},
		{
			Key:             "youtubeSearch",
			Description:     "Video content search on YouTube",
			SearchWeb:       true,
			Engines:         []string{"youtube"},
			Rerank:          true,
			RerankThreshold: 0.3,
			SystemPrompt: "You are a video search assistant. Answer from the provided video titles and " +
				"descriptions and cite with [number] notation.",
		},
	}
}

// NewBuiltinRegistry constructs the startup registry with all builtin modes.
func NewBuiltinRegistry(searcher WebSearcher, logger *slog.Logger) *Registry {
	reg := NewRegistry()
	for _, cfg := range BuiltinModes() {
		reg.Register(cfg.Key, NewSearchAgent(cfg, searcher, logger))
	}
	return reg
}
