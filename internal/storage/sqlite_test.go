package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"coderx/internal/chat"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_GetCreatesEmptySession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Get(ctx, "sess_new_001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.ID != "sess_new_001" {
		t.Fatalf("ID=%q, want %q", sess.ID, "sess_new_001")
	}
	if len(sess.History) != 0 || len(sess.Todos) != 0 {
		t.Fatalf("new session should be empty: %+v", sess)
	}
	if sess.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be set")
	}
}

func TestSQLiteStore_UpdatePersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "sess_msg_001", func(s *Session) error {
		s.History = append(s.History, chat.User("hello"), chat.Assistant("hi there"))
		s.Todos = append(s.Todos, "step 1", "step 2")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	// 追加 / Append
	_, err = store.Update(ctx, "sess_msg_001", func(s *Session) error {
		s.History = append(s.History, chat.User("next"), chat.Assistant("done"))
		s.Todos = s.Todos[1:]
		return nil
	})
	if err != nil {
		t.Fatalf("Update append: %v", err)
	}

	loaded, err := store.Get(ctx, "sess_msg_001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(loaded.History) != 4 {
		t.Fatalf("History count=%d, want 4", len(loaded.History))
	}
	if loaded.History[2].Role != chat.RoleUser || loaded.History[2].Content != "next" {
		t.Fatalf("msg[2] unexpected: %+v", loaded.History[2])
	}
	if len(loaded.Todos) != 1 || loaded.Todos[0] != "step 2" {
		t.Fatalf("Todos=%v, want [step 2]", loaded.Todos)
	}
}

func TestSQLiteStore_RewriteHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Update(ctx, "sess_rw", func(s *Session) error {
		s.History = []chat.Message{chat.User("a"), chat.Assistant("b")}
		return nil
	})
	_, err := store.Update(ctx, "sess_rw", func(s *Session) error {
		s.History = []chat.Message{chat.User("only one")}
		return nil
	})
	if err != nil {
		t.Fatalf("Update rewrite: %v", err)
	}
	loaded, _ := store.Get(ctx, "sess_rw")
	if len(loaded.History) != 1 || loaded.History[0].Content != "only one" {
		t.Fatalf("rewrite history unexpected: %+v", loaded.History)
	}
}

func TestSQLiteStore_FailedUpdateRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Update(ctx, "sess_fail", func(s *Session) error {
		s.Todos = []string{"keep me"}
		return nil
	})

	boom := errors.New("upstream down")
	_, err := store.Update(ctx, "sess_fail", func(s *Session) error {
		s.Todos = nil
		s.History = append(s.History, chat.User("lost"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update err=%v, want %v", err, boom)
	}

	loaded, _ := store.Get(ctx, "sess_fail")
	if len(loaded.History) != 0 {
		t.Fatalf("history should be untouched, got %+v", loaded.History)
	}
	if len(loaded.Todos) != 1 || loaded.Todos[0] != "keep me" {
		t.Fatalf("todos should be untouched, got %v", loaded.Todos)
	}
}

func TestSQLiteStore_ReopenKeepsState(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "durable.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	_, err = first.Update(ctx, "", func(s *Session) error {
		s.Todos = []string{"survive restart"}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	_ = first.Close()

	second, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	loaded, err := second.Get(ctx, DefaultSessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(loaded.Todos) != 1 || loaded.Todos[0] != "survive restart" {
		t.Fatalf("Todos=%v after reopen", loaded.Todos)
	}
}

func TestSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
