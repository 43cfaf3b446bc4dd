package domain

import "time"

// OptionCount is the fixed number of choices per question.
const OptionCount = 4

// Question models one multiple-choice trivia question. Option order is
// meaningful: answers reference options by index.
type Question struct {
	Text          string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOptionIndex"`
	Explanation   string   `json:"explanation"`
	// OriginalIndex is the question's position in the loaded set. It is
	// assigned once and never changes when the question is re-queued, so it
	// stays usable as a stable identity across reorderings.
	OriginalIndex int `json:"originalIndex"`
}

// QuestionSet is a finalized list of questions for one quiz.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Progress reports where the user is in the quiz. TotalRemaining is the
// current queue length, which shrinks as questions are answered correctly;
// re-queued questions keep counting until they pass.
type Progress struct {
	ServedPosition int `json:"servedPosition"`
	TotalRemaining int `json:"totalRemaining"`
	CorrectCount   int `json:"correctCount"`
}

// Feedback is the outcome of one answer submission.
type Feedback struct {
	Correct       bool   `json:"correct"`
	CorrectOption int    `json:"correctOptionIndex"`
	Explanation   string `json:"explanation"`
	Requeued      bool   `json:"requeued"`
}

// Snapshot is a JSON-serializable view of a queue's state, free of any
// presentation-only fields.
type Snapshot struct {
	SessionID        string    `json:"sessionId"`
	Question         *Question `json:"question,omitempty"`
	Progress         Progress  `json:"progress"`
	SelectedOption   *int      `json:"selectedOption,omitempty"`
	AwaitingFeedback bool      `json:"awaitingFeedback"`
	Completed        bool      `json:"completed"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// EventType discriminates queue events sent to subscribers.
type EventType string

const (
	// EventQuestion announces the question now at the head of the queue.
	EventQuestion EventType = "question"
	// EventFeedback reports the outcome of a submission, before the queue advances.
	EventFeedback EventType = "feedback"
	// EventCompleted fires once every question has been answered correctly.
	EventCompleted EventType = "completed"
)

// Event is a queue state-change notification.
type Event struct {
	Type     EventType `json:"type"`
	Question *Question `json:"question,omitempty"`
	Feedback *Feedback `json:"feedback,omitempty"`
	Progress Progress  `json:"progress"`
}
