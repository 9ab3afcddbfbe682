package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nursan/oiltrade-rates/internal/rates"
)

// SessionStore holds the in-flight editing sessions. Sessions are purely
// in-memory; one that sits idle past its TTL is evicted lazily on the next
// store access.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*rates.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions: make(map[uuid.UUID]*rates.Session),
		ttl:      ttl,
		now:      now,
	}
}

func (s *SessionStore) Put(session *rates.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.sessions[session.ID] = session
}

func (s *SessionStore) Get(id uuid.UUID) (*rates.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) evictLocked() {
	if s.ttl <= 0 {
		return
	}
	deadline := s.now().Add(-s.ttl)
	for id, session := range s.sessions {
		if session.LastActive().Before(deadline) {
			delete(s.sessions, id)
		}
	}
}
