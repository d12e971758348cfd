// ABOUTME: Store interface and data types for conversation persistence.
// ABOUTME: Defines Conversation, Turn structs and the Store interface for database operations.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/quorum-gateway/internal/agent"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateConversation is returned when creating a conversation whose id already exists.
var ErrDuplicateConversation = errors.New("conversation already exists")

// ErrDuplicateMessage is returned when inserting a turn whose message id already exists.
var ErrDuplicateMessage = errors.New("message already exists")

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FileRef describes a file attached to a conversation.
type FileRef struct {
	FileID string `json:"fileId"`
	Name   string `json:"name"`
}

// Conversation is one chat thread. Title is fixed to the first human
// message's content at creation and never mutated.
type Conversation struct {
	ID         string
	Title      string
	CreatedAt  time.Time
	FocusModes []string
	Files      []FileRef
}

// TurnMetadata is the structured per-turn metadata persisted alongside content.
type TurnMetadata struct {
	CreatedAt time.Time      `json:"createdAt"`
	Sources   []agent.Source `json:"sources,omitempty"`
}

// Turn is one persisted conversation turn. Seq is the monotonically
// increasing sequence position within the store, assigned on insert.
type Turn struct {
	Seq       int64
	MessageID string
	ChatID    string
	Role      string
	Content   string
	Metadata  TurnMetadata
}

// Store defines the interface for conversation and turn persistence.
type Store interface {
	// Conversations
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// Turns
	InsertTurn(ctx context.Context, turn *Turn) error
	GetTurnByMessageID(ctx context.Context, messageID string) (*Turn, error)
	ListTurns(ctx context.Context, chatID string) ([]*Turn, error)
	DeleteTurnsAfter(ctx context.Context, chatID string, seq int64) error

	Close() error
}
