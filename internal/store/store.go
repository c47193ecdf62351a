// Package store persists chat transcripts in PostgreSQL. A transcript is
// the full ordered message history of one chat, stored as a single JSONB
// document and overwritten wholesale when a turn completes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when the requested chat does not exist.
var ErrNotFound = errors.New("chat not found")

// StoredChat is one persisted chat transcript.
type StoredChat struct {
	ID        string
	UserID    string
	Messages  []*ai.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Querier is the subset of pgxpool.Pool the store needs. Defined here so
// tests can substitute a fake without a live database.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages chat transcripts. Safe for concurrent use as long as the
// underlying Querier is.
type Store struct {
	db     Querier
	logger *slog.Logger
}

// New creates a Store.
func New(db Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Save upserts the transcript keyed by chat id. The messages column is
// replaced, not appended; callers pass the complete history.
func (s *Store) Save(ctx context.Context, chat StoredChat) error {
	payload, err := json.Marshal(chat.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO chats (id, user_id, messages, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id)
		DO UPDATE SET messages = EXCLUDED.messages, updated_at = now()`,
		chat.ID, chat.UserID, payload,
	)
	if err != nil {
		return fmt.Errorf("saving chat %s: %w", chat.ID, err)
	}

	s.logger.Debug("saved chat", "id", chat.ID, "messages", len(chat.Messages))
	return nil
}

// Chat retrieves a transcript by id.
func (s *Store) Chat(ctx context.Context, id string) (StoredChat, error) {
	var (
		chat    StoredChat
		payload []byte
	)

	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, messages, created_at, updated_at
		FROM chats WHERE id = $1`, id)
	if err := row.Scan(&chat.ID, &chat.UserID, &payload, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredChat{}, fmt.Errorf("chat %s: %w", id, ErrNotFound)
		}
		return StoredChat{}, fmt.Errorf("loading chat %s: %w", id, err)
	}

	if err := json.Unmarshal(payload, &chat.Messages); err != nil {
		return StoredChat{}, fmt.Errorf("decoding messages for chat %s: %w", id, err)
	}
	return chat, nil
}

// Delete removes a transcript. Deleting a missing chat returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting chat %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", id, ErrNotFound)
	}

	s.logger.Debug("deleted chat", "id", id)
	return nil
}
