package app

import (
	"context"
	"time"

	"trivia-queue-service/internal/domain"
)

// SessionRepository abstracts how per-session queues are tracked (in-memory,
// Redis-backed, etc). Each session ID maps to at most one live queue; there is
// no cross-session sharing.
type SessionRepository interface {
	Put(sessionID string, queue *Queue)
	Get(sessionID string) (*Queue, bool)
	Delete(sessionID string)
	// SaveState persists a serializable snapshot after a mutation. Stores
	// without a persistence backend may treat this as a no-op.
	SaveState(sessionID string, snap domain.Snapshot)
}

// QuestionSetRepository loads question sets (from cache/backing store).
type QuestionSetRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuizService contains the trivia queue use cases, one isolated queue per
// session.
type QuizService struct {
	sessions      SessionRepository
	sets          QuestionSetRepository
	feedbackDelay time.Duration
}

func NewQuizService(sessions SessionRepository, sets QuestionSetRepository, feedbackDelay time.Duration) *QuizService {
	return &QuizService{sessions: sessions, sets: sets, feedbackDelay: feedbackDelay}
}

// Start loads a question set and begins a fresh quiz for the session. Any
// queue the session already had is torn down first, which also invalidates a
// feedback timer still in flight from the previous quiz (user restarted with
// a new country mid-delay).
func (s *QuizService) Start(ctx context.Context, sessionID, setID string) (domain.Snapshot, error) {
	set, err := s.sets.GetQuestionSet(ctx, setID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	queue, err := NewQueue(sessionID, set.Questions, s.feedbackDelay)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if old, ok := s.sessions.Get(sessionID); ok {
		old.Close()
	}
	queue.SetOnChange(func(snap domain.Snapshot) {
		s.sessions.SaveState(sessionID, snap)
	})
	s.sessions.Put(sessionID, queue)

	snap := queue.Snapshot()
	s.sessions.SaveState(sessionID, snap)
	return snap, nil
}

// Select records a tentative answer for the session's current question.
func (s *QuizService) Select(_ context.Context, sessionID string, option int) (domain.Snapshot, error) {
	queue, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	queue.Select(option)
	return queue.Snapshot(), nil
}

// Submit evaluates the session's pending selection.
func (s *QuizService) Submit(_ context.Context, sessionID string) (domain.Snapshot, error) {
	queue, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	queue.Submit()
	return queue.Snapshot(), nil
}

// Snapshot returns the session's current serializable state.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	queue, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return queue.Snapshot(), nil
}

// Subscribe returns a channel that receives queue events for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Event, func(), error) {
	queue, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := queue.Subscribe()
	return ch, cancel, nil
}

// End tears down the session's queue and forgets the session.
func (s *QuizService) End(_ context.Context, sessionID string) {
	queue, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	queue.Close()
	s.sessions.Delete(sessionID)
}
