package domain

import "errors"

var (
	// ErrInvalidQuestionSet is returned when a question set fails structural
	// validation: empty list, wrong option count, duplicate options, or an
	// out-of-range correct-answer index. The caller must not start a quiz.
	ErrInvalidQuestionSet = errors.New("invalid question set")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrSessionNotFound is returned when no quiz session exists for the
	// given session ID.
	ErrSessionNotFound = errors.New("quiz session not found")
)
