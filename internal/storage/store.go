package storage

import (
	"context"
	"strings"
	"time"

	"coderx/internal/chat"
)

// DefaultSessionID 调用方未提供 session_id 时使用的键
// DefaultSessionID is the key used when the caller sends no session id.
const DefaultSessionID = "default"

// Session 单个会话的状态：对话历史与待办列表
// Session is one conversation's state: its history and its task list.
type Session struct {
	ID        string
	History   []chat.Message
	Todos     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	out.History = chat.CloneMessages(s.History)
	if len(s.Todos) > 0 {
		out.Todos = append([]string(nil), s.Todos...)
	} else {
		out.Todos = nil
	}
	return out
}

// UpdateFunc mutates a working copy of a session. Returning an error discards
// every change made to it. Implementations must not keep the pointer.
type UpdateFunc func(s *Session) error

// Store 会话持久化接口，支持内存与 SQLite 两种后端
// Store is the session persistence interface (memory / SQLite backends).
//
// Sessions are created lazily on first reference. Update holds an exclusive
// per-session lock for the whole callback, so concurrent exchanges on one
// session serialize while different sessions never wait on each other.
type Store interface {
	// Get 读取会话快照（不存在则创建）
	// Get returns a snapshot, creating an empty session if needed.
	Get(ctx context.Context, id string) (Session, error)

	// Update 在会话锁内执行 fn，仅当 fn 返回 nil 时提交
	// Update runs fn under the session lock and commits only if fn returns nil.
	Update(ctx context.Context, id string, fn UpdateFunc) (Session, error)

	// 生命周期 / Lifecycle
	Close() error
}

// NormalizeID trims id and substitutes DefaultSessionID when it is blank.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID
	}
	return id
}
