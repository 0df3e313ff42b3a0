// Package content serves the question bank the engine draws rounds from.
package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by providers for unknown ids or content.
var ErrNotFound = errors.New("content: not found")

// Category groups questions under a display name.
type Category struct {
	ID   uuid.UUID
	Name string
}

// Answer is one selectable option of a question.
type Answer struct {
	ID      uuid.UUID
	Content string
}

// Question carries its answers in display order and the id of the correct one.
type Question struct {
	ID              uuid.UUID
	CategoryID      uuid.UUID
	Content         string
	Answers         []Answer
	CorrectAnswerID uuid.UUID
}

// CorrectAnswer returns the designated correct answer. ok is false when the
// question references an answer it does not carry.
func (q *Question) CorrectAnswer() (Answer, bool) {
	return q.Answer(q.CorrectAnswerID)
}

// Answer looks up one of the question's own answers.
func (q *Question) Answer(id uuid.UUID) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return Answer{}, false
}

// Provider is the read-only view of a question bank. Implementations may do
// I/O, so callers must not hold locks across these calls.
type Provider interface {
	Categories(ctx context.Context) ([]Category, error)
	Questions(ctx context.Context, categoryID uuid.UUID) ([]Question, error)
	Answer(ctx context.Context, id uuid.UUID) (Answer, error)
	AnswerByContent(ctx context.Context, questionID uuid.UUID, content string) (Answer, error)
}
