// ABOUTME: HTTP API handlers for streaming chat, buffered search, and history.
// ABOUTME: Validates requests, resolves model bindings, and dispatches to agents.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/quorum-gateway/internal/agent"
	"github.com/2389/quorum-gateway/internal/history"
	"github.com/2389/quorum-gateway/internal/model"
	"github.com/2389/quorum-gateway/internal/orchestrator"
	"github.com/2389/quorum-gateway/internal/store"
)

// ChatMessage is the inbound human message in a chat request.
type ChatMessage struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	Content   string `json:"content"`
}

// ChatRequest is the JSON request body for POST /api/chat.
// History entries are [role, text] pairs with role "human" or "ai".
type ChatRequest struct {
	Message        ChatMessage      `json:"message"`
	ResponseMode   string           `json:"responseMode"`
	FocusModes     []string         `json:"focusModes"`
	History        [][]string       `json:"history"`
	Files          []string         `json:"files"`
	ChatModel      *model.Selection `json:"chatModel"`
	EmbeddingModel *model.Selection `json:"embeddingModel"`
}

// SearchRequest is the JSON request body for POST /api/search.
type SearchRequest struct {
	Query          string           `json:"query"`
	ResponseMode   string           `json:"responseMode"`
	FocusModes     []string         `json:"focusModes"`
	History        [][]string       `json:"history"`
	ChatModel      *model.Selection `json:"chatModel"`
	EmbeddingModel *model.Selection `json:"embeddingModel"`
}

// SearchResponse is the JSON response for POST /api/search.
type SearchResponse struct {
	Message string         `json:"message"`
	Sources []agent.Source `json:"sources"`
}

// ConversationResponse is one conversation in list and detail responses.
type ConversationResponse struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	CreatedAt  string          `json:"createdAt"`
	FocusModes []string        `json:"focusModes"`
	Files      []store.FileRef `json:"files,omitempty"`
}

// TurnResponse is one persisted turn in a conversation detail response.
type TurnResponse struct {
	MessageID string         `json:"messageId"`
	ChatID    string         `json:"chatId"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"createdAt"`
	Sources   []agent.Source `json:"sources,omitempty"`
}

// ModelsResponse is the JSON response for GET /api/models.
type ModelsResponse struct {
	ChatModels      []model.Info `json:"chatModels"`
	EmbeddingModels []model.Info `json:"embeddingModels"`
}

// resolvedChat holds everything validated out of a chat or search request
// before any agent is invoked.
type resolvedChat struct {
	modes    []string
	chat     model.Model
	embedder model.Embedder
	request  agent.Request
}

// handleChat handles POST /api/chat. It reconciles the human turn, runs the
// requested focus modes, and streams the answer as NDJSON frames.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseChatRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolved, status, rerr := g.resolve(req.FocusModes, req.ChatModel, req.EmbeddingModel, req.ResponseMode, req.History, req.Message.Content, req.Files)
	if rerr != nil {
		g.sendJSONError(w, status, rerr.Error())
		return
	}

	chatID := req.Message.ChatID
	if chatID == "" {
		chatID = uuid.New().String()
	}
	humanID := req.Message.MessageID
	if humanID == "" {
		humanID = uuid.New().String()
	}
	assistantID := uuid.New().String()

	// Check streaming support before any side effects (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		g.logger.Error("streaming not supported")
		g.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The human turn must be persisted before the relay can write the
	// assistant turn for the same conversation.
	err = g.history.Reconcile(r.Context(), history.Message{
		MessageID: humanID,
		ChatID:    chatID,
		Content:   req.Message.Content,
	}, resolved.modes, fileRefs(req.Files))
	if err != nil {
		g.logger.Error("failed to reconcile history", "error", err, "chat_id", chatID)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	stream, err := g.dispatch(r.Context(), resolved)
	if errors.Is(err, agent.ErrUnknownMode) {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid focus mode")
		return
	}
	if err != nil {
		g.logger.Error("agent dispatch failed", "error", err, "chat_id", chatID)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	relay := orchestrator.NewRelay(newNDJSONWriter(w, flusher), g.store, g.logger)
	if err := relay.Run(r.Context(), stream, assistantID, chatID); err != nil {
		g.logger.Error("relay ended abnormally", "error", err, "chat_id", chatID)
	}
}

// dispatch selects the single-agent or fan-out path based on mode count.
func (g *Gateway) dispatch(ctx context.Context, resolved *resolvedChat) (<-chan agent.Envelope, error) {
	if len(resolved.modes) == 1 {
		a, ok := g.agents.Get(resolved.modes[0])
		if !ok {
			return nil, agent.ErrUnknownMode
		}
		return a.Invoke(ctx, resolved.request)
	}
	return g.orch.Stream(ctx, resolved.request, resolved.modes)
}

// resolve validates modes and model bindings and builds the agent request.
// It returns the HTTP status to use on failure. No agent is invoked and no
// state is written on any failure path.
func (g *Gateway) resolve(modes []string, chatSel, embedSel *model.Selection, responseMode string, historyPairs [][]string, query string, files []string) (*resolvedChat, int, error) {
	if len(modes) == 0 {
		modes = []string{agent.DefaultMode}
	}
	// The primary mode must exist before anything is persisted. Unknown
	// secondary modes are skipped during fan-out instead.
	if _, ok := g.agents.Get(modes[0]); !ok {
		return nil, http.StatusBadRequest, fmt.Errorf("Invalid focus mode")
	}
	if responseMode == "" {
		responseMode = agent.ModeFormal
	}

	var chatSelection model.Selection
	if chatSel != nil {
		chatSelection = *chatSel
	}
	chat, err := g.models.ResolveChat(chatSelection)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("resolving chat model: %w", err)
	}

	// An embedder is optional: agents skip reranking without one. An
	// explicitly requested embedder that cannot be resolved is an error.
	var embedder model.Embedder
	if embedSel != nil {
		embedder, err = g.models.ResolveEmbedder(*embedSel)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("resolving embedding model: %w", err)
		}
	} else if e, err := g.models.ResolveEmbedder(model.Selection{}); err == nil {
		embedder = e
	}

	hist, err := parseHistory(historyPairs)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	return &resolvedChat{
		modes:    modes,
		chat:     chat,
		embedder: embedder,
		request: agent.Request{
			Query:        query,
			History:      hist,
			Chat:         chat,
			Embedder:     embedder,
			ResponseMode: responseMode,
			FileIDs:      files,
		},
	}, 0, nil
}

// handleSearch handles POST /api/search. The entire stream is buffered
// server-side and returned as a single JSON document.
func (g *Gateway) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		g.sendJSONError(w, http.StatusBadRequest, "Missing focus mode or query")
		return
	}

	resolved, status, err := g.resolve(req.FocusModes, req.ChatModel, req.EmbeddingModel, req.ResponseMode, req.History, req.Query, nil)
	if err != nil {
		g.sendJSONError(w, status, err.Error())
		return
	}

	stream, err := g.dispatch(r.Context(), resolved)
	if errors.Is(err, agent.ErrUnknownMode) {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid focus mode")
		return
	}
	if err != nil {
		g.logger.Error("agent dispatch failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	message, sources, err := orchestrator.Collect(r.Context(), stream)
	if err != nil {
		g.logger.Error("buffered query failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if sources == nil {
		sources = []agent.Source{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SearchResponse{Message: message, Sources: sources})
}

// handleChats handles GET /api/chats, newest first.
func (g *Gateway) handleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conversations, err := g.store.ListConversations(r.Context())
	if err != nil {
		g.logger.Error("failed to list conversations", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]ConversationResponse, len(conversations))
	for i, c := range conversations {
		response[i] = conversationResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"chats": response})
}

// handleChatByID handles GET and DELETE /api/chats/{id}.
func (g *Gateway) handleChatByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/chats/")
	if id == "" || strings.Contains(id, "/") {
		g.sendJSONError(w, http.StatusBadRequest, "invalid path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		g.handleGetChat(w, r, id)
	case http.MethodDelete:
		g.handleDeleteChat(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) handleGetChat(w http.ResponseWriter, r *http.Request, id string) {
	conv, err := g.store.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		g.logger.Error("failed to get conversation", "error", err, "chat_id", id)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	turns, err := g.store.ListTurns(r.Context(), id)
	if err != nil {
		g.logger.Error("failed to list turns", "error", err, "chat_id", id)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	messages := make([]TurnResponse, len(turns))
	for i, t := range turns {
		messages[i] = TurnResponse{
			MessageID: t.MessageID,
			ChatID:    t.ChatID,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.Metadata.CreatedAt.Format(time.RFC3339),
			Sources:   t.Metadata.Sources,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"chat":     conversationResponse(conv),
		"messages": messages,
	})
}

func (g *Gateway) handleDeleteChat(w http.ResponseWriter, r *http.Request, id string) {
	err := g.store.DeleteConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		g.logger.Error("failed to delete conversation", "error", err, "chat_id", id)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Chat deleted successfully"})
}

// handleModels handles GET /api/models.
func (g *Gateway) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response := ModelsResponse{
		ChatModels:      g.models.ChatModels(),
		EmbeddingModels: g.models.EmbeddingModels(),
	}
	if response.ChatModels == nil {
		response.ChatModels = []model.Info{}
	}
	if response.EmbeddingModels == nil {
		response.EmbeddingModels = []model.Info{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// parseChatRequest parses and validates a ChatRequest from the given reader.
func parseChatRequest(r io.Reader) (*ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if strings.TrimSpace(req.Message.Content) == "" {
		return nil, errors.New("Please provide a message to process")
	}
	return &req, nil
}

// parseHistory converts [role, text] pairs into agent history messages.
func parseHistory(pairs [][]string) ([]agent.HistoryMessage, error) {
	history := make([]agent.HistoryMessage, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, errors.New("history entries must be [role, text] pairs")
		}
		role := pair[0]
		if role != agent.RoleHuman && role != agent.RoleAI {
			return nil, fmt.Errorf("unknown history role %q", role)
		}
		history = append(history, agent.HistoryMessage{Role: role, Text: pair[1]})
	}
	return history, nil
}

// fileRefs normalizes file ids into stored file descriptors.
func fileRefs(ids []string) []store.FileRef {
	if len(ids) == 0 {
		return nil
	}
	refs := make([]store.FileRef, len(ids))
	for i, id := range ids {
		refs[i] = store.FileRef{FileID: id, Name: id}
	}
	return refs
}

func conversationResponse(c *store.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:         c.ID,
		Title:      c.Title,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		FocusModes: c.FocusModes,
		Files:      c.Files,
	}
	if resp.FocusModes == nil {
		resp.FocusModes = []string{}
	}
	return resp
}
