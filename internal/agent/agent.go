// ABOUTME: Agent contract and invocation request types.
// ABOUTME: An agent is an opaque retrieval+generation pipeline bound to one focus mode.

package agent

import (
	"context"

	"github.com/2389/quorum-gateway/internal/model"
)

// History roles as supplied by callers.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Response modes select the answer register.
const (
	ModeFormal      = "formal"
	ModeExplanatory = "explanatory"
)

// HistoryMessage is one prior conversation turn passed to an agent.
type HistoryMessage struct {
	Role string // RoleHuman or RoleAI
	Text string
}

// Request carries everything an agent needs to produce an answer stream.
type Request struct {
	Query        string
	History      []HistoryMessage
	Chat         model.Model
	Embedder     model.Embedder
	ResponseMode string
	FileIDs      []string
}

// Agent produces an asynchronous envelope stream for a query. The returned
// channel is closed after the terminal envelope. Invoke may fail before the
// stream starts; mid-stream failures arrive as an Error envelope.
type Agent interface {
	Invoke(ctx context.Context, req Request) (<-chan Envelope, error)
	Name() string
}
