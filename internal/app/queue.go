package app

import (
	"fmt"
	"sync"
	"time"

	"trivia-queue-service/internal/domain"
)

// Queue serves trivia questions one at a time from a self-reordering queue.
// A correct answer retires the head question; an incorrect answer moves it to
// the back so it must be retried after the rest. The quiz completes only once
// every question has been answered correctly at least once.
//
// All methods are safe for concurrent use, but the intended model is a single
// UI-driven caller: stray calls that arrive while feedback is pending (or
// after completion) are absorbed as no-ops rather than surfaced as errors.
type Queue struct {
	sessionID     string
	feedbackDelay time.Duration
	now           func() time.Time

	mu            sync.Mutex
	questions     []domain.Question // questions[0] is the one being served
	originalCount int
	correctCount  int
	selected      int // option index, -1 when none
	awaiting      bool
	completed     bool
	closed        bool
	pending       *time.Timer
	onChange      func(domain.Snapshot)
	subscribers   map[chan domain.Event]struct{}
}

const noSelection = -1

// NewQueue validates the question set and builds a queue serving it in input
// order. Each question gets an OriginalIndex matching its position in the
// input; re-queuing never reassigns it.
func NewQueue(sessionID string, questions []domain.Question, feedbackDelay time.Duration) (*Queue, error) {
	return NewQueueWithClock(sessionID, questions, feedbackDelay, time.Now)
}

// NewQueueWithClock is test-only for deterministic snapshot timestamps.
func NewQueueWithClock(sessionID string, questions []domain.Question, feedbackDelay time.Duration, now func() time.Time) (*Queue, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty question list", domain.ErrInvalidQuestionSet)
	}

	owned := make([]domain.Question, len(questions))
	for i, question := range questions {
		if len(question.Options) != domain.OptionCount {
			return nil, fmt.Errorf("%w: question %d has %d options, want %d",
				domain.ErrInvalidQuestionSet, i, len(question.Options), domain.OptionCount)
		}
		if question.CorrectOption < 0 || question.CorrectOption >= domain.OptionCount {
			return nil, fmt.Errorf("%w: question %d correct index %d out of range",
				domain.ErrInvalidQuestionSet, i, question.CorrectOption)
		}
		seen := make(map[string]struct{}, domain.OptionCount)
		for _, opt := range question.Options {
			if _, dup := seen[opt]; dup {
				return nil, fmt.Errorf("%w: question %d has duplicate option %q",
					domain.ErrInvalidQuestionSet, i, opt)
			}
			seen[opt] = struct{}{}
		}
		question.OriginalIndex = i
		owned[i] = question
	}

	return &Queue{
		sessionID:     sessionID,
		feedbackDelay: feedbackDelay,
		now:           now,
		questions:     owned,
		originalCount: len(owned),
		selected:      noSelection,
		subscribers:   make(map[chan domain.Event]struct{}),
	}, nil
}

// SetOnChange registers a callback invoked with a fresh snapshot after every
// state change. The callback runs outside the queue lock, so a slow sink
// (e.g. a Redis write) cannot stall queue operations, and it may safely call
// back into the queue.
func (q *Queue) SetOnChange(fn func(domain.Snapshot)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Select records a tentative answer for the current question. Repeated calls
// overwrite the previous selection; the queue never advances from a Select.
// Calls during the feedback window, after completion, or with an out-of-range
// index are ignored.
func (q *Queue) Select(option int) {
	q.mu.Lock()
	if q.awaiting || q.completed || q.closed {
		q.mu.Unlock()
		return
	}
	if option < 0 || option >= domain.OptionCount {
		q.mu.Unlock()
		return
	}
	q.selected = option
	snap, fn := q.snapshotLocked(), q.onChange
	q.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Submit evaluates the pending selection against the current question. The
// outcome is announced immediately as a feedback event; the queue itself only
// advances after the feedback delay, via a cancellable timer, so a teardown
// mid-delay never applies the deferred transition to stale state.
//
// Submitting with no selection, while feedback is already pending, or after
// completion is a no-op. This double-submission guard is what keeps a
// rapid-clicking user (or a duplicated network event) from desynchronizing
// the queue from what is displayed.
func (q *Queue) Submit() {
	q.mu.Lock()
	if q.selected == noSelection || q.awaiting || q.completed || q.closed {
		q.mu.Unlock()
		return
	}

	current := q.questions[0]
	correct := q.selected == current.CorrectOption
	q.awaiting = true

	q.broadcastLocked(domain.Event{
		Type: domain.EventFeedback,
		Feedback: &domain.Feedback{
			Correct:       correct,
			CorrectOption: current.CorrectOption,
			Explanation:   current.Explanation,
			Requeued:      !correct,
		},
		Progress: q.progressLocked(),
	})

	if q.feedbackDelay <= 0 {
		q.resolveLocked(correct)
	} else {
		q.pending = time.AfterFunc(q.feedbackDelay, func() {
			q.mu.Lock()
			// The queue may have been torn down while the timer was in flight.
			if q.closed || !q.awaiting {
				q.mu.Unlock()
				return
			}
			q.resolveLocked(correct)
			snap, fn := q.snapshotLocked(), q.onChange
			q.mu.Unlock()

			if fn != nil {
				fn(snap)
			}
		})
	}

	snap, fn := q.snapshotLocked(), q.onChange
	q.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// resolveLocked applies the deferred half of a submission: advance past a
// correctly answered question, or rotate an incorrectly answered one to the
// back of the queue.
func (q *Queue) resolveLocked(correct bool) {
	q.pending = nil
	q.selected = noSelection
	q.awaiting = false

	if correct {
		q.correctCount++
		q.questions = q.questions[1:]
		if len(q.questions) == 0 {
			q.completed = true
			q.broadcastLocked(domain.Event{
				Type:     domain.EventCompleted,
				Progress: q.progressLocked(),
			})
			return
		}
	} else {
		// Move the missed question behind everything still pending. With a
		// single-question queue this rotates it back to itself.
		head := q.questions[0]
		q.questions = append(q.questions[1:], head)
	}

	next := q.questions[0]
	q.broadcastLocked(domain.Event{
		Type:     domain.EventQuestion,
		Question: &next,
		Progress: q.progressLocked(),
	})
}

// CurrentQuestion returns the question being served, or false once the quiz
// has completed.
func (q *Queue) CurrentQuestion() (domain.Question, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.completed || len(q.questions) == 0 {
		return domain.Question{}, false
	}
	return q.questions[0], true
}

// Progress reports the "Question X of Y" counters. Y is the number of
// questions still in the queue at display time, so it reflects re-queued
// retries rather than the original set size; CorrectCount is the monotonic
// alternative for callers that want a stable denominator.
func (q *Queue) Progress() domain.Progress {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.progressLocked()
}

func (q *Queue) progressLocked() domain.Progress {
	if q.completed {
		return domain.Progress{
			ServedPosition: q.originalCount,
			TotalRemaining: 0,
			CorrectCount:   q.correctCount,
		}
	}
	return domain.Progress{
		ServedPosition: q.originalCount - len(q.questions) + 1,
		TotalRemaining: len(q.questions),
		CorrectCount:   q.correctCount,
	}
}

// Completed reports whether every question has been answered correctly.
func (q *Queue) Completed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

// Snapshot returns a serializable copy of the queue state.
func (q *Queue) Snapshot() domain.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Queue) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:        q.sessionID,
		Progress:         q.progressLocked(),
		AwaitingFeedback: q.awaiting,
		Completed:        q.completed,
		UpdatedAt:        q.now(),
	}
	if !q.completed && len(q.questions) > 0 {
		question := q.questions[0]
		snap.Question = &question
	}
	if q.selected != noSelection {
		selected := q.selected
		snap.SelectedOption = &selected
	}
	return snap
}

// Subscribe returns a channel of queue events, primed with the current
// question, plus a cancel function the caller must invoke to avoid leaks.
func (q *Queue) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 8)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	q.subscribers[ch] = struct{}{}
	initial := domain.Event{Type: domain.EventQuestion, Progress: q.progressLocked()}
	if q.completed {
		initial.Type = domain.EventCompleted
	} else {
		question := q.questions[0]
		initial.Question = &question
	}
	// Prime while still holding the lock: a concurrent Close must not be able
	// to close ch between registration and this send. The channel is fresh
	// with a free buffer slot, so the send cannot block.
	ch <- initial
	q.mu.Unlock()

	cancel := func() {
		q.mu.Lock()
		if _, ok := q.subscribers[ch]; ok {
			delete(q.subscribers, ch)
			close(ch)
		}
		q.mu.Unlock()
	}
	return ch, cancel
}

// Close tears the queue down: the pending feedback timer is invalidated so
// its deferred transition is discarded, and subscriber channels are closed.
// All later calls are no-ops.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	if q.pending != nil {
		q.pending.Stop()
		q.pending = nil
	}
	for ch := range q.subscribers {
		close(ch)
	}
	q.subscribers = nil
}

func (q *Queue) broadcastLocked(event domain.Event) {
	for ch := range q.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest buffered event so a slow consumer cannot
			// block queue transitions.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
