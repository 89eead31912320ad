package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
)

type entry struct {
	session   conversation.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory for tests/dev.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	now      func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]entry), now: time.Now}
}

// Save stores the session. A non-positive ttl keeps it until overwritten.
func (s *MemoryStore) Save(_ context.Context, session conversation.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.sessions[session.ID] = entry{session: session, expiresAt: exp}
	return nil
}

// Get returns the session unless it is missing or expired.
func (s *MemoryStore) Get(_ context.Context, id string) (conversation.Session, bool, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return conversation.Session{}, false, nil
	}
	if !e.expiresAt.IsZero() && e.expiresAt.Before(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return conversation.Session{}, false, nil
	}
	return e.session, true, nil
}

var _ conversation.SessionStore = (*MemoryStore)(nil)
