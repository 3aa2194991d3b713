package memory

import (
	"context"
	"sync"

	"lms-quiz-session/internal/domain"
	"lms-quiz-session/internal/session"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
	}
}

func (s *SessionStore) GetOrCreate(userID string, create func() *session.Session) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess, false
	}
	sess := create()
	s.sessions[userID] = sess
	return sess, true
}

func (s *SessionStore) Get(userID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Delete removes userID's session if it is still sess.
func (s *SessionStore) Delete(userID string, sess *session.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[userID]; !ok || current != sess {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// Record is a no-op; the live session already holds its state.
func (s *SessionStore) Record(context.Context, string, domain.Snapshot) {}

// Len reports the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
