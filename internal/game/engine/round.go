package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/trivia-rush/internal/content"
	"github.com/palemoky/trivia-rush/internal/protocol"
)

const (
	statusGameStarting     = "Game is starting, brace yourself!"
	statusNextRound        = "End of round! Prepare for next question!"
	statusCategoriesReused = "Every category has been played, categories will repeat."
	statusQuestionsReused  = "Every question in this category has been played, questions will repeat."
)

// errNoContent means the bank has no category with at least one question.
var errNoContent = errors.New("question bank is empty")

// contentRequest is what a round start needs to know, copied under the lock.
type contentRequest struct {
	counter           int
	expiredCategories map[uuid.UUID]struct{}
	expiredQuestions  map[uuid.UUID]struct{}
}

type selection struct {
	category content.Category
	question content.Question
	notice   string
}

// Advance runs one scheduler tick for the session with id. Every tick starts
// with expiry cleanup; sessions still forming or already over stop there.
func (e *Engine) Advance(ctx context.Context, id uuid.UUID) error {
	s, ok := e.registry.Session(id)
	if !ok {
		return nil
	}

	var out outbox
	req, needContent := e.beginTick(s, &out)
	e.flushSession(s, &out)
	if !needContent {
		return nil
	}

	// The provider may be slow; the lock is not held here.
	sel, selErr := e.selectContent(ctx, req)

	e.finishTick(s, req, sel, selErr, &out)
	e.flushSession(s, &out)

	if selErr != nil {
		return fmt.Errorf("session %d round %d: %w", s.Code, req.counter+1, selErr)
	}
	return nil
}

// beginTick handles everything that needs no content and reports whether a
// new round should start. The caller flushes out.
func (e *Engine) beginTick(s *Session, out *outbox) (contentRequest, bool) {
	s.mu.Lock()
	defer s.release()

	if s.deleted || e.cleanupLocked(s, out) {
		return contentRequest{}, false
	}
	if s.gameOver || !s.playersReady {
		return contentRequest{}, false
	}

	if s.round.AnswerTimer <= 0 && !s.round.Ongoing && !s.round.Ending {
		if s.round.BreakTimer >= 0 {
			e.breakLocked(s, out)
		} else if s.round.Counter < e.rules.RoundLimit {
			return contentRequest{
				counter:           s.round.Counter,
				expiredCategories: cloneSet(s.expiredCategories),
				expiredQuestions:  cloneSet(s.expiredQuestions),
			}, true
		}
	}

	e.stepLocked(s, out)
	return contentRequest{}, false
}

// finishTick applies the selected content if the session did not move on
// while the lock was released, then continues the tick.
func (e *Engine) finishTick(s *Session, req contentRequest, sel selection, selErr error, out *outbox) {
	s.mu.Lock()
	defer s.release()

	if s.deleted || s.gameOver || s.round.Counter != req.counter || s.round.Ongoing || s.round.Ending {
		return
	}
	if selErr != nil {
		if s.startFailedAt.IsZero() {
			s.startFailedAt = e.now()
		}
		log.Printf("⚠️ Session %d: cannot start round %d: %v", s.Code, req.counter+1, selErr)
		return
	}
	e.startRoundLocked(s, sel, out)
	e.stepLocked(s, out)
}

func (e *Engine) stepLocked(s *Session, out *outbox) {
	if s.round.Ongoing && s.timerArmed {
		e.countdownLocked(s, out)
	}
	if s.round.Ending {
		e.endRoundLocked(s, out)
	}
}

func (e *Engine) breakLocked(s *Session, out *outbox) {
	if s.round.Counter == 0 {
		out.status(s, statusGameStarting)
	} else {
		out.status(s, statusNextRound)
	}
	s.round.BreakTimer--
}

func (e *Engine) startRoundLocked(s *Session, sel selection, out *outbox) {
	s.startFailedAt = time.Time{}
	s.round.Counter++
	s.round.AnswerTimer = e.rules.AnswerWindow
	s.round.Ongoing = true
	s.round.Ending = false

	category, question := sel.category, sel.question
	s.round.Category = &category
	s.round.Question = &question
	s.expiredCategories[category.ID] = struct{}{}
	s.expiredQuestions[question.ID] = struct{}{}

	for _, p := range s.players {
		p.clearSelection()
	}

	if sel.notice != "" {
		out.status(s, sel.notice)
	}
	out.toGroup(s, protocol.MsgRoundInfo, roundInfo(s.round))
	out.snapshot(s)

	e.metrics.RoundStarted(context.Background())
	log.Printf("❓ Session %d round %d: %s", s.Code, s.round.Counter, category.Name)
}

func (e *Engine) countdownLocked(s *Session, out *outbox) {
	if s.round.AnswerTimer < 0 {
		return
	}
	out.toGroup(s, protocol.MsgTimer, protocol.TimerPayload{Seconds: s.round.AnswerTimer})
	s.round.AnswerTimer--
	if s.round.AnswerTimer < 0 {
		s.timerArmed = false
		s.round.Ongoing = false
		s.round.Ending = true
	}
}

func (e *Engine) endRoundLocked(s *Session, out *outbox) {
	e.checkAnswersLocked(s, out)
	e.evaluateGameOverLocked(s, out)
	if !s.gameOver {
		s.timerArmed = true
	}
}

// selectContent draws a category not yet played in this session and a fresh
// question from it. Once every category is used any category may repeat, and
// a category whose questions are all used may repeat a question.
func (e *Engine) selectContent(ctx context.Context, req contentRequest) (selection, error) {
	categories, err := e.content.Categories(ctx)
	if err != nil {
		return selection{}, fmt.Errorf("list categories: %w", err)
	}

	candidates := make([]content.Category, 0, len(categories))
	for _, c := range categories {
		if _, used := req.expiredCategories[c.ID]; !used {
			candidates = append(candidates, c)
		}
	}
	notice := ""
	if len(candidates) == 0 {
		candidates = categories
		notice = statusCategoriesReused
	}
	if len(candidates) == 0 {
		return selection{}, errNoContent
	}

	var fallback *selection
	start := e.intn(len(candidates))
	for i := range candidates {
		c := candidates[(start+i)%len(candidates)]
		questions, err := e.content.Questions(ctx, c.ID)
		if err != nil {
			return selection{}, fmt.Errorf("questions for %q: %w", c.Name, err)
		}
		if len(questions) == 0 {
			continue
		}

		fresh := make([]content.Question, 0, len(questions))
		for _, q := range questions {
			if _, used := req.expiredQuestions[q.ID]; !used {
				fresh = append(fresh, q)
			}
		}
		if len(fresh) > 0 {
			return selection{category: c, question: fresh[e.intn(len(fresh))], notice: notice}, nil
		}
		if fallback == nil {
			reuse := notice
			if reuse == "" {
				reuse = statusQuestionsReused
			}
			fallback = &selection{category: c, question: questions[e.intn(len(questions))], notice: reuse}
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return selection{}, errNoContent
}

func cloneSet(m map[uuid.UUID]struct{}) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
