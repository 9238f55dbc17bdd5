package quiz

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Sardorious/test-me/internal/grading"
	"github.com/Sardorious/test-me/internal/vocab"
)

// ContentSource is the slice of the vocabulary store the generator needs.
type ContentSource interface {
	WordsForLevel(ctx context.Context, level string) ([]vocab.Word, error)
}

// AuditLog records lifecycle events. Appending is best-effort: failures are
// logged and never fail the operation that triggered them.
type AuditLog interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// Engine runs quiz sessions: generates them, applies answer events one
// guarded transaction at a time, and scores results. Scores are always
// recomputed from question rows, never cached, so a teacher override is
// reflected everywhere immediately.
type Engine struct {
	store   Store
	content ContentSource
	audit   AuditLog
	now     func() time.Time
	rng     *rand.Rand
}

type Option func(*Engine)

func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithAudit(a AuditLog) Option {
	return func(e *Engine) { e.audit = a }
}

func New(store Store, content ContentSource, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		content: content,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CreateSession draws the level's words, shuffles, truncates to count
// (0 = all), and persists the session with one question per word. The
// question snapshots both sides of the word. Creating a session cancels the
// student's previous in-progress session.
func (e *Engine) CreateSession(ctx context.Context, studentID, level string, direction Direction, count int) (Session, error) {
	if !vocab.ValidLevel(level) {
		return Session{}, fmt.Errorf("%w: level %q", ErrInvalidScope, level)
	}
	if _, ok := ParseDirection(string(direction)); !ok {
		return Session{}, fmt.Errorf("%w: direction %q", ErrInvalidScope, direction)
	}
	if count < 0 {
		return Session{}, fmt.Errorf("%w: count %d", ErrInvalidScope, count)
	}

	words, err := e.content.WordsForLevel(ctx, level)
	if err != nil {
		return Session{}, wrapStorage(err)
	}
	if len(words) == 0 {
		return Session{}, ErrNoContent
	}

	e.rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	if count > 0 && count < len(words) {
		words = words[:count]
	}

	s := Session{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		Level:           level,
		Direction:       direction,
		TotalQuestions:  len(words),
		Status:          StatusInProgress,
		CurrentPosition: 1,
		CreatedAt:       e.now(),
	}
	questions := make([]Question, 0, len(words))
	for i, w := range words {
		prompt, answer := w.Turkish, w.Uzbek
		if direction == UzToTr {
			prompt, answer = w.Uzbek, w.Turkish
		}
		questions = append(questions, Question{
			ID:            uuid.NewString(),
			SessionID:     s.ID,
			WordID:        w.ID,
			Position:      i + 1,
			ShownLang:     direction.ShownLang(),
			Prompt:        prompt,
			CorrectAnswer: answer,
		})
	}
	if err := e.store.CreateSession(ctx, s, questions); err != nil {
		return Session{}, wrapStorage(err)
	}
	e.auditLog(ctx, "session.created", s.ID, map[string]any{
		"student_id": s.StudentID, "level": s.Level, "direction": s.Direction, "total": s.TotalQuestions,
	})
	return s, nil
}

// Submit grades free text against the question at position and advances.
func (e *Engine) Submit(ctx context.Context, sessionID string, position int, text string) (Progress, error) {
	return e.apply(ctx, sessionID, position, false, func(q *Question) {
		ok := grading.IsCorrect(text, q.CorrectAnswer)
		q.StudentAnswer = &text
		q.IsCorrect = &ok
	})
}

// Skip defers the question at position to the end of the session. The
// question stays unanswered and ungraded until it is re-presented.
func (e *Engine) Skip(ctx context.Context, sessionID string, position int) (Progress, error) {
	return e.apply(ctx, sessionID, position, false, func(q *Question) {
		q.Skipped = true
	})
}

// Decline records an explicit "no answer": empty answer, graded incorrect,
// never re-presented.
func (e *Engine) Decline(ctx context.Context, sessionID string, position int) (Progress, error) {
	return e.apply(ctx, sessionID, position, false, func(q *Question) {
		empty := ""
		wrong := false
		q.StudentAnswer = &empty
		q.IsCorrect = &wrong
	})
}

// Finish asks for finalization. Deferred (skipped, unanswered) questions are
// still re-presented lowest position first; questions never reached are left
// untouched. Once nothing is owed, the session finalizes.
func (e *Engine) Finish(ctx context.Context, sessionID string) (Progress, error) {
	return e.apply(ctx, sessionID, 0, true, nil)
}

// apply runs one event: load, guard, mutate in memory, pick the next cursor,
// then commit everything through the store in a single transaction. position
// 0 means "the session's current position" (Finish carries no position).
func (e *Engine) apply(ctx context.Context, sessionID string, position int, finish bool, mutate func(*Question)) (Progress, error) {
	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return Progress{}, wrapStorage(err)
	}
	if s.Status != StatusInProgress {
		return Progress{}, ErrAlreadyFinished
	}
	if position == 0 {
		position = s.CurrentPosition
	}
	if position != s.CurrentPosition {
		return Progress{}, ErrStaleEvent
	}

	questions, err := e.store.Questions(ctx, sessionID)
	if err != nil {
		return Progress{}, wrapStorage(err)
	}
	if position < 1 || position > len(questions) {
		return Progress{}, ErrQuestionNotFound
	}

	var upd *QuestionUpdate
	if mutate != nil {
		q := &questions[position-1]
		mutate(q)
		upd = &QuestionUpdate{
			QuestionID:    q.ID,
			StudentAnswer: q.StudentAnswer,
			IsCorrect:     q.IsCorrect,
			Skip:          q.Skipped,
		}
	}

	finishing := finish || s.FinishRequested
	cur := advance(questions, position, finishing)
	cur.FinishRequested = finishing
	if cur.Finalize {
		cur.FinishedAt = e.now()
	}
	if err := e.store.ApplyEvent(ctx, sessionID, position, upd, cur); err != nil {
		return Progress{}, wrapStorage(err)
	}

	if cur.Finalize {
		res := score(questions)
		e.auditLog(ctx, "session.finished", sessionID, res)
		return Progress{Result: &res}, nil
	}
	return Progress{Question: promptFor(s, questions, cur.NextPosition)}, nil
}

// advance picks the next cursor after an event at position. Forward flow
// moves to the next fresh question; skipped-pending and answered rows are
// passed over. When forward flow runs out, or finishing was requested, the
// re-queue scan picks the lowest skipped-and-unanswered position. When that
// finds nothing the session finalizes. Each event resolves at most one owed
// question, so the loop is bounded by the number of skips.
func advance(questions []Question, position int, finishing bool) Cursor {
	if !finishing {
		for p := position + 1; p <= len(questions); p++ {
			if questions[p-1].fresh() {
				return Cursor{NextPosition: p}
			}
		}
	}
	for p := 1; p <= len(questions); p++ {
		if questions[p-1].pendingSkip() {
			return Cursor{NextPosition: p}
		}
	}
	return Cursor{Finalize: true}
}

// score tallies a result from question rows. Percent is floored integer
// math. NoAnswer counts declines and never-reached questions alike; rows
// that were never graded stay out of the correct count.
func score(questions []Question) Result {
	r := Result{Total: len(questions)}
	for i := range questions {
		q := &questions[i]
		if q.IsCorrect != nil && *q.IsCorrect {
			r.Correct++
		}
		if q.StudentAnswer == nil || *q.StudentAnswer == "" {
			r.NoAnswer++
		}
	}
	if r.Total > 0 {
		r.Percent = r.Correct * 100 / r.Total
	}
	return r
}

// CurrentQuestion returns what the student should be asked right now.
func (e *Engine) CurrentQuestion(ctx context.Context, sessionID string) (*Prompt, error) {
	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if s.Status != StatusInProgress {
		return nil, ErrAlreadyFinished
	}
	questions, err := e.store.Questions(ctx, sessionID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if s.CurrentPosition < 1 || s.CurrentPosition > len(questions) {
		return nil, ErrQuestionNotFound
	}
	return promptFor(s, questions, s.CurrentPosition), nil
}

// Cancel terminates an in-progress session without scoring it.
func (e *Engine) Cancel(ctx context.Context, sessionID string) error {
	if err := e.store.Cancel(ctx, sessionID); err != nil {
		return wrapStorage(err)
	}
	e.auditLog(ctx, "session.cancelled", sessionID, nil)
	return nil
}

// Summary recomputes a session's result and collects its graded mistakes.
func (e *Engine) Summary(ctx context.Context, sessionID string) (Summary, error) {
	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return Summary{}, wrapStorage(err)
	}
	questions, err := e.store.Questions(ctx, sessionID)
	if err != nil {
		return Summary{}, wrapStorage(err)
	}
	sum := Summary{Session: s, Result: score(questions)}
	for i := range questions {
		q := &questions[i]
		if q.IsCorrect == nil || *q.IsCorrect {
			continue
		}
		answer := ""
		if q.StudentAnswer != nil {
			answer = *q.StudentAnswer
		}
		sum.Mistakes = append(sum.Mistakes, Mistake{
			Position:      q.Position,
			Prompt:        q.Prompt,
			StudentAnswer: answer,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return sum, nil
}

// MarkCorrect overrides one graded-wrong question to correct. Totals are not
// stored anywhere, so every later read reflects the override.
func (e *Engine) MarkCorrect(ctx context.Context, questionID string) error {
	q, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return wrapStorage(err)
	}
	if err := e.store.SetCorrect(ctx, questionID); err != nil {
		return wrapStorage(err)
	}
	e.auditLog(ctx, "question.overridden", q.SessionID, map[string]any{
		"question_id": q.ID, "position": q.Position,
	})
	return nil
}

// ListSessions lists sessions with recomputed scores, newest first.
func (e *Engine) ListSessions(ctx context.Context, opts ListOpts) ([]SessionRow, error) {
	rows, err := e.store.ListSessions(ctx, opts)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return rows, nil
}

func promptFor(s Session, questions []Question, position int) *Prompt {
	q := &questions[position-1]
	return &Prompt{
		SessionID: s.ID,
		Position:  q.Position,
		Total:     s.TotalQuestions,
		ShownLang: q.ShownLang,
		Text:      q.Prompt,
	}
}

func (e *Engine) auditLog(ctx context.Context, typ, key string, data any) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Append(ctx, typ, key, data); err != nil {
		log.Printf("quiz: audit %s %s: %v", typ, key, err)
	}
}
