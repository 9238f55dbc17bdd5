package quiz

import (
	"context"
	"time"
)

// QuestionUpdate is the mutation an event applies to the question at the
// session's current position. Nil pointer fields write NULL; Skip is one-way
// (a skipped flag is never cleared).
type QuestionUpdate struct {
	QuestionID    string
	StudentAnswer *string
	IsCorrect     *bool
	Skip          bool
}

// Cursor is where the session moves after an event.
type Cursor struct {
	NextPosition    int
	FinishRequested bool
	Finalize        bool
	FinishedAt      time.Time // used when Finalize is set
}

// Store persists sessions and questions. Every event is one transaction:
// either the question mutation and the cursor move both land, or neither.
type Store interface {
	// CreateSession inserts the session with its questions atomically and
	// cancels any other in-progress session of the same student.
	CreateSession(ctx context.Context, s Session, questions []Question) error
	GetSession(ctx context.Context, id string) (Session, error)
	// Questions returns the session's questions ordered by position.
	Questions(ctx context.Context, sessionID string) ([]Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)

	// ApplyEvent commits one event. It fails with ErrAlreadyFinished unless
	// the session is still in progress, and with ErrStaleEvent unless
	// expectPos is still the stored current position, so a duplicate
	// delivery rejects instead of double-scoring.
	ApplyEvent(ctx context.Context, sessionID string, expectPos int, upd *QuestionUpdate, cur Cursor) error

	// Cancel marks an in-progress session cancelled.
	Cancel(ctx context.Context, id string) error

	// SetCorrect flips a question's recorded correctness false→true. Fails
	// with ErrAlreadyCorrect when already true, ErrNotAnswered when the
	// question was never graded.
	SetCorrect(ctx context.Context, questionID string) error

	// ListSessions returns sessions with their scores recomputed from
	// question rows, newest first.
	ListSessions(ctx context.Context, opts ListOpts) ([]SessionRow, error)
}
