package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateSession(ctx context.Context, sess Session, questions []Question) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	_, err = tx.ExecContext(ctx, `UPDATE sessions SET status='cancelled'
		WHERE student_id=$1 AND status='in_progress'`, sess.StudentID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO sessions
		(id,student_id,level,direction,total_questions,status,current_position,finish_requested,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sess.ID, sess.StudentID, sess.Level, string(sess.Direction), sess.TotalQuestions,
		string(sess.Status), sess.CurrentPosition, sess.FinishRequested, sess.CreatedAt.Unix())
	if err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		_, err = tx.ExecContext(ctx, `INSERT INTO questions
			(id,session_id,word_id,position,shown_lang,prompt,correct_answer,student_answer,is_correct,skipped)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			q.ID, q.SessionID, nullIfEmpty(q.WordID), q.Position, q.ShownLang,
			q.Prompt, q.CorrectAnswer, q.StudentAnswer, q.IsCorrect, q.Skipped)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,student_id,level,direction,total_questions,status,
		current_position,finish_requested,created_at,finished_at
		FROM sessions WHERE id=$1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) Questions(ctx context.Context, sessionID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,session_id,word_id,position,shown_lang,prompt,
		correct_answer,student_answer,is_correct,skipped
		FROM questions WHERE session_id=$1 ORDER BY position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		// distinguish an unknown session from a known-but-empty one
		var one int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id=$1`, sessionID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,session_id,word_id,position,shown_lang,prompt,
		correct_answer,student_answer,is_correct,skipped
		FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) ApplyEvent(ctx context.Context, sessionID string, expectPos int, upd *QuestionUpdate, cur Cursor) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var status string
	var pos int
	err = tx.QueryRowContext(ctx, `SELECT status, current_position FROM sessions WHERE id=$1`, sessionID).
		Scan(&status, &pos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrSessionNotFound
		}
		return err
	}
	if Status(status) != StatusInProgress {
		err = ErrAlreadyFinished
		return err
	}
	if pos != expectPos {
		err = ErrStaleEvent
		return err
	}

	if upd != nil {
		_, err = tx.ExecContext(ctx, `UPDATE questions
			SET student_answer=$1, is_correct=$2, skipped = skipped OR $3
			WHERE id=$4`,
			upd.StudentAnswer, upd.IsCorrect, upd.Skip, upd.QuestionID)
		if err != nil {
			return err
		}
	}

	// the guard repeats in the UPDATE so a concurrent event loses cleanly
	var res sql.Result
	if cur.Finalize {
		res, err = tx.ExecContext(ctx, `UPDATE sessions
			SET status='finished', finished_at=$1, finish_requested=$2
			WHERE id=$3 AND status='in_progress' AND current_position=$4`,
			cur.FinishedAt.Unix(), cur.FinishRequested, sessionID, expectPos)
	} else {
		res, err = tx.ExecContext(ctx, `UPDATE sessions
			SET current_position=$1, finish_requested=$2
			WHERE id=$3 AND status='in_progress' AND current_position=$4`,
			cur.NextPosition, cur.FinishRequested, sessionID, expectPos)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrStaleEvent
		return err
	}
	return nil
}

func (s *SQLStore) Cancel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET status='cancelled'
		WHERE id=$1 AND status='in_progress'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var status string
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id=$1`, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	return ErrAlreadyFinished
}

func (s *SQLStore) SetCorrect(ctx context.Context, questionID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET is_correct=TRUE
		WHERE id=$1 AND is_correct=FALSE`, questionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var correct sql.NullBool
	if err := s.db.QueryRowContext(ctx, `SELECT is_correct FROM questions WHERE id=$1`, questionID).Scan(&correct); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return err
	}
	if !correct.Valid {
		return ErrNotAnswered
	}
	return ErrAlreadyCorrect
}

func (s *SQLStore) ListSessions(ctx context.Context, opts ListOpts) ([]SessionRow, error) {
	conds := []string{"1=1"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if opts.StudentID != "" {
		add("s.student_id=$%d", opts.StudentID)
	}
	if opts.Level != "" {
		add("s.level=$%d", opts.Level)
	}
	if opts.Status != "" {
		add("s.status=$%d", string(opts.Status))
	}
	if !opts.From.IsZero() {
		add("s.finished_at >= $%d", opts.From.Unix())
	}
	if !opts.To.IsZero() {
		add("s.finished_at < $%d", opts.To.Unix())
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)

	query := fmt.Sprintf(`SELECT s.id,s.student_id,s.level,s.direction,s.total_questions,s.status,
		s.current_position,s.finish_requested,s.created_at,s.finished_at,
		TRIM(u.first_name || ' ' || u.last_name),
		COUNT(q.id),
		COALESCE(SUM(CASE WHEN q.is_correct THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN q.student_answer IS NULL OR q.student_answer = '' THEN 1 ELSE 0 END), 0)
		FROM sessions s
		JOIN users u ON u.id = s.student_id
		LEFT JOIN questions q ON q.session_id = s.id
		WHERE %s
		GROUP BY s.id, u.first_name, u.last_name
		ORDER BY COALESCE(s.finished_at, s.created_at) DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var direction, status string
		var created int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Level, &direction, &r.TotalQuestions, &status,
			&r.CurrentPosition, &r.Session.FinishRequested, &created, &finished,
			&r.StudentName, &r.Total, &r.Correct, &r.NoAnswer); err != nil {
			return nil, err
		}
		r.Direction = Direction(direction)
		r.Session.Status = Status(status)
		r.CreatedAt = time.Unix(created, 0)
		if finished.Valid {
			t := time.Unix(finished.Int64, 0)
			r.Session.FinishedAt = &t
		}
		if r.Total > 0 {
			r.Percent = r.Correct * 100 / r.Total
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var s Session
	var direction, status string
	var created int64
	var finished sql.NullInt64
	if err := r.Scan(&s.ID, &s.StudentID, &s.Level, &direction, &s.TotalQuestions, &status,
		&s.CurrentPosition, &s.FinishRequested, &created, &finished); err != nil {
		return Session{}, err
	}
	s.Direction = Direction(direction)
	s.Status = Status(status)
	s.CreatedAt = time.Unix(created, 0)
	if finished.Valid {
		t := time.Unix(finished.Int64, 0)
		s.FinishedAt = &t
	}
	return s, nil
}

func scanQuestion(r rowScanner) (Question, error) {
	var q Question
	var wordID sql.NullString
	var answer sql.NullString
	var correct sql.NullBool
	if err := r.Scan(&q.ID, &q.SessionID, &wordID, &q.Position, &q.ShownLang, &q.Prompt,
		&q.CorrectAnswer, &answer, &correct, &q.Skipped); err != nil {
		return Question{}, err
	}
	q.WordID = wordID.String
	if answer.Valid {
		a := answer.String
		q.StudentAnswer = &a
	}
	if correct.Valid {
		c := correct.Bool
		q.IsCorrect = &c
	}
	return q, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
