package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ariephoon/aiva/internal/log"
)

// fakeDB implements Querier over an in-memory map, interpreting just the
// three statements the store issues.
type fakeDB struct {
	chats   map[string]fakeChat
	execErr error
}

type fakeChat struct {
	userID  string
	payload []byte
	created time.Time
	updated time.Time
}

func newFakeDB() *fakeDB {
	return &fakeDB{chats: map[string]fakeChat{}}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}

	switch {
	case strings.Contains(sql, "INSERT INTO chats"):
		id, userID, payload := args[0].(string), args[1].(string), args[2].([]byte)
		now := time.Now()
		existing, ok := f.chats[id]
		if ok {
			existing.payload = payload
			existing.updated = now
			f.chats[id] = existing
		} else {
			f.chats[id] = fakeChat{userID: userID, payload: payload, created: now, updated: now}
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case strings.Contains(sql, "DELETE FROM chats"):
		id := args[0].(string)
		if _, ok := f.chats[id]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(f.chats, id)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected statement: " + sql)
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	id := args[0].(string)
	chat, ok := f.chats[id]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: []any{id, chat.userID, chat.payload, chat.created, chat.updated}}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch v := r.values[i].(type) {
		case string:
			*d.(*string) = v
		case []byte:
			*d.(*[]byte) = v
		case time.Time:
			*d.(*time.Time) = v
		}
	}
	return nil
}

func messages(texts ...string) []*ai.Message {
	out := make([]*ai.Message, 0, len(texts))
	for i, text := range texts {
		role := ai.RoleUser
		if i%2 == 1 {
			role = ai.RoleModel
		}
		out = append(out, &ai.Message{Role: role, Content: []*ai.Part{ai.NewTextPart(text)}})
	}
	return out
}

func TestSaveAndChat_RoundTrip(t *testing.T) {
	s := New(newFakeDB(), log.NewNop())
	ctx := context.Background()

	in := StoredChat{ID: "c1", UserID: "u1", Messages: messages("hello", "hi there")}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Chat(ctx, "c1")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("user id = %q", got.UserID)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("message count = %d", len(got.Messages))
	}
	if got.Messages[1].Content[0].Text != "hi there" {
		t.Errorf("second message = %q", got.Messages[1].Content[0].Text)
	}
	if got.Messages[1].Role != ai.RoleModel {
		t.Errorf("second message role = %q", got.Messages[1].Role)
	}
}

func TestSave_UpsertOverwrites(t *testing.T) {
	db := newFakeDB()
	s := New(db, log.NewNop())
	ctx := context.Background()

	if err := s.Save(ctx, StoredChat{ID: "c1", UserID: "u1", Messages: messages("first")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, StoredChat{ID: "c1", UserID: "u1", Messages: messages("first", "second", "third")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Chat(ctx, "c1")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Errorf("messages not replaced, count = %d", len(got.Messages))
	}
}

func TestChat_NotFound(t *testing.T) {
	s := New(newFakeDB(), log.NewNop())

	_, err := s.Chat(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db := newFakeDB()
	s := New(db, log.NewNop())
	ctx := context.Background()

	if err := s.Save(ctx, StoredChat{ID: "c1", UserID: "u1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := db.chats["c1"]; ok {
		t.Error("chat still present after delete")
	}

	if err := s.Delete(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSave_ExecError(t *testing.T) {
	db := newFakeDB()
	db.execErr = errors.New("connection refused")
	s := New(db, log.NewNop())

	err := s.Save(context.Background(), StoredChat{ID: "c1", UserID: "u1"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("exec error not propagated: %v", err)
	}
}

func TestSave_MessagesSerializedAsJSON(t *testing.T) {
	db := newFakeDB()
	s := New(db, log.NewNop())

	msgs := messages("with tool call")
	msgs = append(msgs, &ai.Message{
		Role: ai.RoleTool,
		Content: []*ai.Part{
			ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   "getWeather",
				Output: map[string]any{"current": map[string]any{"temperature_2m": 25.0}},
			}),
		},
	})

	if err := s.Save(context.Background(), StoredChat{ID: "c1", UserID: "u1", Messages: msgs}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var decoded []json.RawMessage
	if err := json.Unmarshal(db.chats["c1"].payload, &decoded); err != nil {
		t.Fatalf("stored payload is not a JSON array: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("stored %d messages, want 2", len(decoded))
	}
}
