package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lms-quiz-session/internal/domain"
	"lms-quiz-session/internal/session"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Live sessions (timers, subscribers) stay in a local map; they cannot be shared.
//   - Redis holds the latest snapshot per user under quiz:session:{userID} so other
//     instances and operators can see who is mid-quiz and where.
//   - Every Record refreshes the key TTL; a crashed instance's keys age out.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	logger   zerolog.Logger
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger.With().Str("component", "redis_session_store").Logger(),
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
	s.Record(context.Background(), userID, sess.Snapshot())
	return sess, true
}

func (s *SessionStore) Get(userID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Delete removes userID's session and snapshot key if the session is still sess.
func (s *SessionStore) Delete(userID string, sess *session.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[userID]; !ok || current != sess {
		return false
	}
	delete(s.sessions, userID)
	if err := s.client.Del(context.Background(), Key(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("session key delete failed")
	}
	return true
}

// Record stores snap as the user's latest known state (best effort).
func (s *SessionStore) Record(ctx context.Context, userID string, snap domain.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, Key(userID), raw, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("session snapshot write failed")
	}
}

// Key is the Redis key holding a user's latest session snapshot.
func Key(userID string) string {
	return "quiz:session:" + userID
}
