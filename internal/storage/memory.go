package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内会话存储，进程退出即丢失
// MemoryStore keeps sessions in process memory until exit.
type MemoryStore struct {
	locks keyedLocks

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	return m.loadOrCreate(NormalizeID(id)), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (Session, error) {
	id = NormalizeID(id)
	release, err := m.locks.acquire(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer release()

	work := m.loadOrCreate(id)
	if err := fn(&work); err != nil {
		return Session{}, err
	}
	work.ID = id
	work.UpdatedAt = time.Now().UTC()

	committed := work.Clone()
	m.mu.Lock()
	m.sessions[id] = &committed
	m.mu.Unlock()
	return work, nil
}

// Len reports how many sessions exist.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) Close() error {
	return nil
}

// loadOrCreate returns a deep copy of the stored session, creating it first
// when id is unseen.
func (m *MemoryStore) loadOrCreate(id string) Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	if ok {
		out := s.Clone()
		m.mu.RUnlock()
		return out
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s.Clone()
	}
	now := time.Now().UTC()
	s = &Session{ID: id, CreatedAt: now, UpdatedAt: now}
	m.sessions[id] = s
	return s.Clone()
}
