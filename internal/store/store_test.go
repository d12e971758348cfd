package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quorum-gateway/internal/agent"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testConversation(id string) *Conversation {
	return &Conversation{
		ID:         id,
		Title:      "How do I enable waiting rooms?",
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		FocusModes: []string{"generalAgent", "jiraAgent"},
		Files:      []FileRef{{FileID: "f1", Name: "notes.txt"}},
	}
}

func TestStore_CreateConversation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, testConversation("chat-1")))

	retrieved, err := store.GetConversation(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "How do I enable waiting rooms?", retrieved.Title)
	assert.Equal(t, []string{"generalAgent", "jiraAgent"}, retrieved.FocusModes)
	require.Len(t, retrieved.Files, 1)
	assert.Equal(t, "f1", retrieved.Files[0].FileID)
}

func TestStore_CreateConversation_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, testConversation("chat-1")))
	err := store.CreateConversation(ctx, testConversation("chat-1"))
	assert.ErrorIs(t, err, ErrDuplicateConversation)
}

func TestStore_GetConversation_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetConversation(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListConversations_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := testConversation("chat-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	newer := testConversation("chat-new")

	require.NoError(t, store.CreateConversation(ctx, older))
	require.NoError(t, store.CreateConversation(ctx, newer))

	conversations, err := store.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, "chat-new", conversations[0].ID)
	assert.Equal(t, "chat-old", conversations[1].ID)
}

func TestStore_InsertTurn_AssignsSequence(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateConversation(ctx, testConversation("chat-1")))

	first := &Turn{MessageID: "m1", ChatID: "chat-1", Role: RoleUser, Content: "hello"}
	second := &Turn{MessageID: "m2", ChatID: "chat-1", Role: RoleAssistant, Content: "hi"}

	require.NoError(t, store.InsertTurn(ctx, first))
	require.NoError(t, store.InsertTurn(ctx, second))
	assert.Greater(t, second.Seq, first.Seq)
}

func TestStore_InsertTurn_DuplicateMessageID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateConversation(ctx, testConversation("chat-1")))

	turn := &Turn{MessageID: "m1", ChatID: "chat-1", Role: RoleUser, Content: "hello"}
	require.NoError(t, store.InsertTurn(ctx, turn))

	dup := &Turn{MessageID: "m1", ChatID: "chat-1", Role: RoleUser, Content: "hello again"}
	assert.ErrorIs(t, store.InsertTurn(ctx, dup), ErrDuplicateMessage)
}

func TestStore_TurnMetadataRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateConversation(ctx, testConversation("chat-1")))

	now := time.Now().UTC().Truncate(time.Second)
	turn := &Turn{
		MessageID: "m1",
		ChatID:    "chat-1",
		Role:      RoleAssistant,
		Content:   "answer",
		Metadata: TurnMetadata{
			CreatedAt: now,
			Sources: []agent.Source{
				{URL: "https://example.com", Title: "Example"},
			},
		},
	}
	require.NoError(t, store.InsertTurn(ctx, turn))

	retrieved, err := store.GetTurnByMessageID(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, retrieved.Metadata.CreatedAt.Equal(now))
	require.Len(t, retrieved.Metadata.Sources, 1)
	assert.Equal(t, "https://example.com", retrieved.Metadata.Sources[0].URL)
}

func TestStore_DeleteTurnsAfter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateConversation(ctx, testConversation("chat-1")))

	var turns []*Turn
	for _, id := range []string{"u1", "a1", "u2", "a2"} {
		turn := &Turn{MessageID: id, ChatID: "chat-1", Role: RoleUser, Content: id}
		require.NoError(t, store.InsertTurn(ctx, turn))
		turns = append(turns, turn)
	}

	// Delete everything after u2.
	require.NoError(t, store.DeleteTurnsAfter(ctx, "chat-1", turns[2].Seq))

	remaining, err := store.ListTurns(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	assert.Equal(t, "u1", remaining[0].MessageID)
	assert.Equal(t, "a1", remaining[1].MessageID)
	assert.Equal(t, "u2", remaining[2].MessageID)
}

func TestStore_DeleteConversation_RemovesTurns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateConversation(ctx, testConversation("chat-1")))
	require.NoError(t, store.InsertTurn(ctx, &Turn{MessageID: "m1", ChatID: "chat-1", Role: RoleUser, Content: "x"}))

	require.NoError(t, store.DeleteConversation(ctx, "chat-1"))

	_, err := store.GetConversation(ctx, "chat-1")
	assert.ErrorIs(t, err, ErrNotFound)

	turns, err := store.ListTurns(ctx, "chat-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStore_DeleteConversation_NotFound(t *testing.T) {
	store := setupTestStore(t)
	err := store.DeleteConversation(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}
