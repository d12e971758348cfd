// Package gateway orchestrates the quorum-gateway server components.
//
// # Overview
//
// The gateway package is the central coordinator of the quorum-gateway
// server. It owns and manages all major components: the sqlite store, the
// SearxNG search client, the model registry, the agent registry, the
// history service, and the HTTP server.
//
// # HTTP API
//
// The gateway exposes HTTP endpoints in api.go:
//
//   - POST /api/chat - Streaming chat request (NDJSON frames)
//   - POST /api/search - Buffered query returning the full answer at once
//   - GET /api/chats - List conversations, newest first
//   - GET /api/chats/{id} - Conversation detail with its turns
//   - DELETE /api/chats/{id} - Remove a conversation and its turns
//   - GET /api/models - Available chat and embedding models
//   - GET /health - Liveness check
//
// # Streaming
//
// POST /api/chat streams newline-delimited JSON frames with
// Content-Type: text/event-stream, flushed per frame:
//
//	{"type":"sources","data":[...],"messageId":"..."}
//	{"type":"message","data":"chunk","messageId":"..."}
//	{"type":"messageEnd","messageId":"..."}
//
// Exactly one of messageEnd/error terminates the stream. The human turn is
// reconciled against the store before streaming starts; the assistant turn
// is persisted when the stream ends successfully.
//
// # Lifecycle
//
// New() wires all components from configuration. Run() starts the HTTP
// server and blocks until the context is canceled, then shuts down
// gracefully and closes the store.
package gateway
