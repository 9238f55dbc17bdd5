package quiz

import "time"

// Direction is which way a session translates.
type Direction string

const (
	TrToUz Direction = "tr_to_uz"
	UzToTr Direction = "uz_to_tr"
)

func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case TrToUz, UzToTr:
		return Direction(s), true
	default:
		return "", false
	}
}

// ShownLang is the language code of the side presented to the student.
func (d Direction) ShownLang() string {
	if d == TrToUz {
		return "tr"
	}
	return "uz"
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
	StatusCancelled  Status = "cancelled"
)

type Session struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	Level           string     `json:"level"`
	Direction       Direction  `json:"direction"`
	TotalQuestions  int        `json:"total_questions"`
	Status          Status     `json:"status"`
	CurrentPosition int        `json:"current_position"`
	FinishRequested bool       `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Question is one slot of a session. Prompt and CorrectAnswer are snapshots
// taken at generation time, so later edits or deletions of the source word
// never change what was asked or how it is scored. StudentAnswer is nil until
// the student responds; "" records an explicit "no answer".
type Question struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	WordID        string  `json:"word_id,omitempty"`
	Position      int     `json:"position"`
	ShownLang     string  `json:"shown_lang"`
	Prompt        string  `json:"prompt"`
	CorrectAnswer string  `json:"correct_answer"`
	StudentAnswer *string `json:"student_answer,omitempty"`
	IsCorrect     *bool   `json:"is_correct,omitempty"`
	Skipped       bool    `json:"skipped"`
}

// answered: the student responded (possibly with "no answer").
func (q *Question) answered() bool { return q.StudentAnswer != nil }

// pendingSkip: skipped earlier and still owed an answer.
func (q *Question) pendingSkip() bool { return q.Skipped && q.StudentAnswer == nil }

// fresh: never presented, never skipped.
func (q *Question) fresh() bool { return q.StudentAnswer == nil && !q.Skipped }

// Prompt is what a transport renders for one question.
type Prompt struct {
	SessionID string `json:"session_id"`
	Position  int    `json:"position"`
	Total     int    `json:"total"`
	ShownLang string `json:"shown_lang"`
	Text      string `json:"text"`
}

// Result holds a session's scores, always recomputed from question rows.
type Result struct {
	Total    int `json:"total"`
	Correct  int `json:"correct"`
	NoAnswer int `json:"no_answer"`
	Percent  int `json:"percent"`
}

// Progress is the outcome of one answer event: the next question to present,
// or the final result once the session finalizes. Exactly one field is set.
type Progress struct {
	Question *Prompt `json:"question,omitempty"`
	Result   *Result `json:"result,omitempty"`
}

type Mistake struct {
	Position      int    `json:"position"`
	Prompt        string `json:"prompt"`
	StudentAnswer string `json:"student_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

type Summary struct {
	Session Session `json:"session"`
	Result
	Mistakes []Mistake `json:"mistakes,omitempty"`
}

type ListOpts struct {
	StudentID string
	Level     string
	Status    Status
	From      time.Time // finished_at lower bound, inclusive
	To        time.Time // finished_at upper bound, exclusive
	Limit     int
	Offset    int
}

// SessionRow is one line of a results listing: the session plus its scores
// and the student's display name.
type SessionRow struct {
	Session
	StudentName string `json:"student_name,omitempty"`
	Result
}
