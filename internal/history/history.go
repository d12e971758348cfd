// ABOUTME: HistoryStore reconciles an incoming human message against persisted state.
// ABOUTME: Creates the conversation if new, inserts the turn if unseen, or truncates on resubmit.

package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/quorum-gateway/internal/store"
)

// Message is the incoming human message to reconcile.
type Message struct {
	MessageID string
	ChatID    string
	Content   string
}

// Service reconciles human messages into the conversation store. Callers
// await Reconcile before streaming starts so the human turn always precedes
// the assistant turn written later by the relay.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a history service.
func New(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger.With("component", "history"),
	}
}

// Reconcile applies one human message to persisted conversation state:
//
//  1. If no conversation exists for the chat id, create one with the message
//     content as its permanent title and the requested focus modes.
//  2. If the message id is unseen, insert a new user turn.
//  3. If the message id already exists, delete every turn positioned strictly
//     after it (edit/resubmit). The existing turn's content is left unchanged.
func (s *Service) Reconcile(ctx context.Context, msg Message, focusModes []string, files []store.FileRef) error {
	_, err := s.store.GetConversation(ctx, msg.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		conv := &store.Conversation{
			ID:         msg.ChatID,
			Title:      msg.Content,
			CreatedAt:  time.Now().UTC(),
			FocusModes: focusModes,
			Files:      files,
		}
		if createErr := s.store.CreateConversation(ctx, conv); createErr != nil {
			// A concurrent request may have created it between lookup and insert.
			if !errors.Is(createErr, store.ErrDuplicateConversation) {
				return fmt.Errorf("creating conversation: %w", createErr)
			}
			s.logger.Debug("conversation created concurrently", "chat_id", msg.ChatID)
		} else {
			s.logger.Debug("conversation created", "chat_id", msg.ChatID, "modes", focusModes)
		}
	} else if err != nil {
		return fmt.Errorf("looking up conversation: %w", err)
	}

	existing, err := s.store.GetTurnByMessageID(ctx, msg.MessageID)
	if errors.Is(err, store.ErrNotFound) {
		turn := &store.Turn{
			MessageID: msg.MessageID,
			ChatID:    msg.ChatID,
			Role:      store.RoleUser,
			Content:   msg.Content,
			Metadata:  store.TurnMetadata{CreatedAt: time.Now().UTC()},
		}
		if insertErr := s.store.InsertTurn(ctx, turn); insertErr != nil {
			return fmt.Errorf("inserting user turn: %w", insertErr)
		}
		s.logger.Debug("user turn recorded", "chat_id", msg.ChatID, "message_id", msg.MessageID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up turn: %w", err)
	}

	// Edit/resubmit: discard everything after the edited message. The stored
	// turn keeps its original content.
	if err := s.store.DeleteTurnsAfter(ctx, msg.ChatID, existing.Seq); err != nil {
		return fmt.Errorf("truncating turns: %w", err)
	}
	s.logger.Debug("history truncated after resubmit",
		"chat_id", msg.ChatID,
		"message_id", msg.MessageID,
		"seq", existing.Seq)
	return nil
}
