package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-queue-service/internal/app"
	"trivia-queue-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Live queues (with their subscriber channels and pending feedback
//     timers) stay in a local in-memory map; those cannot cross a process
//     boundary.
//   - Redis holds a JSON snapshot of each session's queue state, refreshed
//     after every mutation. Sessions are not restored from these snapshots on
//     restart; the snapshot is an observability/persistence hook, not a
//     recovery mechanism.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Queue
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Queue),
	}
}

func (s *SessionStore) Put(sessionID string, queue *app.Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = queue
}

func (s *SessionStore) Get(sessionID string) (*app.Queue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queue, ok := s.sessions[sessionID]
	return queue, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

// SaveState writes the snapshot to Redis, best-effort. A write failure must
// not fail the quiz, so it is only logged.
func (s *SessionStore) SaveState(sessionID string, snap domain.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("marshal session %s snapshot: %v", sessionID, err)
		return
	}
	if err := s.client.Set(context.Background(), s.key(sessionID), data, s.ttl).Err(); err != nil {
		log.Printf("save session %s snapshot: %v", sessionID, err)
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "trivia:session:" + sessionID
}
