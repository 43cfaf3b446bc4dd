package memory

import (
	"sync"

	"trivia-queue-service/internal/app"
	"trivia-queue-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Queue state lives only in process memory, so a restart loses in-flight
// quizzes; that matches the observed behavior of the system this serves.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Queue
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
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
}

// SaveState is a no-op; this store has no persistence backend.
func (s *SessionStore) SaveState(string, domain.Snapshot) {}
