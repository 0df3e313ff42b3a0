package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/apperrors"
	"github.com/palemoky/trivia-rush/internal/content"
)

// SubmitAnswer records a member's selection for the open question. The
// answer is resolved through the content provider by id and then by content
// within the current question. Re-submitting the same answer changes nothing.
// Answers arriving while no question is open fail with ErrAnswerWindowClosed.
func (e *Engine) SubmitAnswer(ctx context.Context, rawPlayerID, rawAnswerID string, code int) error {
	playerID, ok := parseID(rawPlayerID)
	if !ok {
		return apperrors.ErrInvalidID
	}
	answerID, ok := parseID(rawAnswerID)
	if !ok {
		return apperrors.ErrInvalidID
	}
	s, ok := e.registry.SessionByCode(code)
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	var (
		questionID uuid.UUID
		counter    int
	)
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := answerableLocked(s, playerID); err != nil {
			return err
		}
		questionID = s.round.Question.ID
		counter = s.round.Counter
		return nil
	}()
	if err != nil {
		return err
	}

	answer, err := e.resolveAnswer(ctx, questionID, answerID)
	if err != nil {
		return err
	}

	var (
		out     outbox
		changed bool
	)
	err = func() error {
		s.mu.Lock()
		defer s.release()
		if err := answerableLocked(s, playerID); err != nil {
			return err
		}
		if s.round.Counter != counter {
			return apperrors.ErrAnswerWindowClosed
		}
		p, _ := s.member(playerID)
		p.touch(e.now())
		if changed = p.selectAnswer(answer); changed {
			out.snapshot(s)
		}
		return nil
	}()
	e.flushSession(s, &out)
	if err != nil {
		return err
	}
	if changed {
		e.metrics.AnswerAccepted(ctx)
	}
	return nil
}

func answerableLocked(s *Session, playerID uuid.UUID) error {
	if s.deleted {
		return apperrors.ErrSessionNotFound
	}
	if _, ok := s.member(playerID); !ok {
		return apperrors.ErrPlayerNotFound
	}
	if !s.round.Ongoing || s.round.Question == nil {
		return apperrors.ErrAnswerWindowClosed
	}
	return nil
}

func (e *Engine) resolveAnswer(ctx context.Context, questionID, answerID uuid.UUID) (content.Answer, error) {
	a, err := e.content.Answer(ctx, answerID)
	if errors.Is(err, content.ErrNotFound) {
		return content.Answer{}, apperrors.ErrAnswerNotFound
	}
	if err != nil {
		return content.Answer{}, fmt.Errorf("lookup answer %s: %w", answerID, err)
	}

	canonical, err := e.content.AnswerByContent(ctx, questionID, a.Content)
	if errors.Is(err, content.ErrNotFound) {
		return content.Answer{}, apperrors.ErrAnswerNotInQuestion
	}
	if err != nil {
		return content.Answer{}, fmt.Errorf("lookup answer in question %s: %w", questionID, err)
	}
	return canonical, nil
}
