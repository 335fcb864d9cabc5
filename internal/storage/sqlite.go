package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coderx/internal/chat"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的会话存储
// SQLiteStore implements Store on SQLite in WAL mode. Session locks are
// process-local, so one database file must be served by one process.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	locks keyedLocks
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(session_id, seq)
	);

	CREATE TABLE IF NOT EXISTS todos (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY(session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Session, error) {
	return s.load(ctx, NormalizeID(id))
}

func (s *SQLiteStore) Update(ctx context.Context, id string, fn UpdateFunc) (Session, error) {
	id = NormalizeID(id)
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer release()

	before, err := s.load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	work := before.Clone()
	if err := fn(&work); err != nil {
		return Session{}, err
	}
	work.ID = id
	if err := s.commit(ctx, before, &work); err != nil {
		return Session{}, err
	}
	return work, nil
}

// load reads one session, inserting an empty row first when it is unseen.
func (s *SQLiteStore) load(ctx context.Context, id string) (Session, error) {
	now := nowUTC()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`, id, now, now); err != nil {
		return Session{}, fmt.Errorf("ensure session: %w", err)
	}

	sess := Session{ID: id}
	var createdAt, updatedAt string
	row := s.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM sessions WHERE id=?`, id)
	if err := row.Scan(&createdAt, &updatedAt); err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)

	history, err := s.loadMessages(ctx, id)
	if err != nil {
		return Session{}, err
	}
	todos, err := s.loadTodos(ctx, id)
	if err != nil {
		return Session{}, err
	}
	sess.History = history
	sess.Todos = todos
	return sess, nil
}

// --- Message Operations ---

func (s *SQLiteStore) loadMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM messages WHERE session_id=? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// --- Todo Operations ---

func (s *SQLiteStore) loadTodos(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM todos WHERE session_id=? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		items = append(items, content)
	}
	return items, rows.Err()
}

// commit writes after in one transaction. When after.History extends
// before.History only the new suffix is inserted; otherwise the history is
// rewritten. Todos are always replaced.
func (s *SQLiteStore) commit(ctx context.Context, before Session, after *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	start := len(before.History)
	if !hasPrefix(after.History, before.History) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id=?", after.ID); err != nil {
			return fmt.Errorf("delete old messages: %w", err)
		}
		start = 0
	}

	now := nowUTC()
	msgStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (session_id, seq, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer msgStmt.Close()
	for i := start; i < len(after.History); i++ {
		msg := after.History[i]
		if _, err := msgStmt.ExecContext(ctx, after.ID, i, msg.Role, msg.Content, now); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM todos WHERE session_id=?", after.ID); err != nil {
		return fmt.Errorf("delete old todos: %w", err)
	}
	todoStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO todos (session_id, seq, content, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare todo insert: %w", err)
	}
	defer todoStmt.Close()
	for i, item := range after.Todos {
		if _, err := todoStmt.ExecContext(ctx, after.ID, i, item, now); err != nil {
			return fmt.Errorf("insert todo %d: %w", i, err)
		}
	}

	// 更新 session 时间戳 / Update session timestamp
	if _, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at=? WHERE id=?", now, after.ID); err != nil {
		return fmt.Errorf("update session timestamp: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	after.UpdatedAt = parseTime(now)
	return nil
}

// --- Helpers ---

func hasPrefix(history, prefix []chat.Message) bool {
	if len(prefix) > len(history) {
		return false
	}
	for i := range prefix {
		if history[i] != prefix[i] {
			return false
		}
	}
	return true
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
