// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite.
// ABOUTME: Provides conversation/turn persistence with automatic schema creation.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			focus_modes TEXT NOT NULL DEFAULT '[]',
			files TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS turns (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			chat_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			FOREIGN KEY (chat_id) REFERENCES conversations(id)
		);

		CREATE INDEX IF NOT EXISTS idx_turns_chat_id
			ON turns(chat_id);

		CREATE INDEX IF NOT EXISTS idx_turns_message_id
			ON turns(message_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// CreateConversation inserts a new conversation record.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	modes, err := json.Marshal(conv.FocusModes)
	if err != nil {
		return fmt.Errorf("encoding focus modes: %w", err)
	}
	files, err := json.Marshal(conv.Files)
	if err != nil {
		return fmt.Errorf("encoding files: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, created_at, focus_modes, files)
		VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.Title, conv.CreatedAt.UTC().Format(time.RFC3339), string(modes), string(files))
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateConversation
		}
		return fmt.Errorf("inserting conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation by id.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, focus_modes, files
		FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// ListConversations returns all conversations, newest first.
func (s *SQLiteStore) ListConversations(ctx context.Context) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, focus_modes, files
		FROM conversations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// DeleteConversation removes a conversation and all its turns.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE chat_id = ?`, id); err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// InsertTurn inserts a turn and assigns its sequence position.
func (s *SQLiteStore) InsertTurn(ctx context.Context, turn *Turn) error {
	metadata, err := json.Marshal(turn.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (message_id, chat_id, role, content, metadata)
		VALUES (?, ?, ?, ?, ?)`,
		turn.MessageID, turn.ChatID, turn.Role, turn.Content, string(metadata))
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("inserting turn: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}
	turn.Seq = seq
	return nil
}

// GetTurnByMessageID retrieves a turn by its message id.
func (s *SQLiteStore) GetTurnByMessageID(ctx context.Context, messageID string) (*Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, message_id, chat_id, role, content, metadata
		FROM turns WHERE message_id = ?`, messageID)
	return scanTurn(row)
}

// ListTurns returns a conversation's turns in sequence order.
func (s *SQLiteStore) ListTurns(ctx context.Context, chatID string) ([]*Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, message_id, chat_id, role, content, metadata
		FROM turns WHERE chat_id = ? ORDER BY seq ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []*Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// DeleteTurnsAfter removes every turn in the conversation with a sequence
// position strictly greater than seq.
func (s *SQLiteStore) DeleteTurnsAfter(ctx context.Context, chatID string, seq int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM turns WHERE chat_id = ? AND seq > ?`, chatID, seq)
	if err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (*Conversation, error) {
	var conv Conversation
	var createdAt, modes, files string
	err := row.Scan(&conv.ID, &conv.Title, &createdAt, &modes, &files)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	conv.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(modes), &conv.FocusModes); err != nil {
		return nil, fmt.Errorf("decoding focus modes: %w", err)
	}
	if err := json.Unmarshal([]byte(files), &conv.Files); err != nil {
		return nil, fmt.Errorf("decoding files: %w", err)
	}
	return &conv, nil
}

func scanTurn(row scanner) (*Turn, error) {
	var turn Turn
	var metadata string
	err := row.Scan(&turn.Seq, &turn.MessageID, &turn.ChatID, &turn.Role, &turn.Content, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning turn: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &turn.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &turn, nil
}
