// ABOUTME: Mock Store implementation for testing.
// ABOUTME: Allows tests to run without SQLite.

package store

import (
	"context"
	"sort"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	turns         []*Turn
	nextSeq       int64

	// FailInsertTurn, when set, makes InsertTurn return this error.
	FailInsertTurn error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		conversations: make(map[string]*Conversation),
		nextSeq:       1,
	}
}

// CreateConversation stores a new conversation.
func (m *MockStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.conversations[conv.ID]; exists {
		return ErrDuplicateConversation
	}
	c := *conv
	m.conversations[c.ID] = &c
	return nil
}

// GetConversation retrieves a conversation by id.
func (m *MockStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *conv
	return &c, nil
}

// ListConversations returns all conversations, newest first.
func (m *MockStore) ListConversations(ctx context.Context) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conversations := make([]*Conversation, 0, len(m.conversations))
	for _, conv := range m.conversations {
		c := *conv
		conversations = append(conversations, &c)
	}
	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].CreatedAt.Equal(conversations[j].CreatedAt) {
			return conversations[i].ID > conversations[j].ID
		}
		return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
	})
	return conversations, nil
}

// DeleteConversation removes a conversation and its turns.
func (m *MockStore) DeleteConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)

	kept := m.turns[:0]
	for _, turn := range m.turns {
		if turn.ChatID != id {
			kept = append(kept, turn)
		}
	}
	m.turns = kept
	return nil
}

// InsertTurn appends a turn and assigns its sequence position.
func (m *MockStore) InsertTurn(ctx context.Context, turn *Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailInsertTurn != nil {
		return m.FailInsertTurn
	}

	for _, existing := range m.turns {
		if existing.MessageID == turn.MessageID {
			return ErrDuplicateMessage
		}
	}

	turn.Seq = m.nextSeq
	m.nextSeq++
	t := *turn
	m.turns = append(m.turns, &t)
	return nil
}

// GetTurnByMessageID retrieves a turn by message id.
func (m *MockStore) GetTurnByMessageID(ctx context.Context, messageID string) (*Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, turn := range m.turns {
		if turn.MessageID == messageID {
			t := *turn
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

// ListTurns returns a conversation's turns in sequence order.
func (m *MockStore) ListTurns(ctx context.Context, chatID string) ([]*Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var turns []*Turn
	for _, turn := range m.turns {
		if turn.ChatID == chatID {
			t := *turn
			turns = append(turns, &t)
		}
	}
	sort.Slice(turns, func(i, j int) bool { return turns[i].Seq < turns[j].Seq })
	return turns, nil
}

// DeleteTurnsAfter removes turns in the conversation with Seq > seq.
func (m *MockStore) DeleteTurnsAfter(ctx context.Context, chatID string, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.turns[:0]
	for _, turn := range m.turns {
		if turn.ChatID == chatID && turn.Seq > seq {
			continue
		}
		kept = append(kept, turn)
	}
	m.turns = kept
	return nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}
