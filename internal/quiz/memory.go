package quiz

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	questions map[string][]Question // by session id, ordered by position
}

// NewInMemoryStore backs the engine without a database. Used by tests and
// local experiments; semantics mirror the SQL store.
func NewInMemoryStore() Store {
	return &memoryStore{
		sessions:  map[string]Session{},
		questions: map[string][]Question{},
	}
}

func (m *memoryStore) CreateSession(ctx context.Context, s Session, questions []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, prev := range m.sessions {
		if prev.StudentID == s.StudentID && prev.Status == StatusInProgress {
			prev.Status = StatusCancelled
			m.sessions[id] = prev
		}
	}
	m.sessions[s.ID] = s
	qs := make([]Question, len(questions))
	copy(qs, questions)
	sort.Slice(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })
	m.questions[s.ID] = qs
	return nil
}

func (m *memoryStore) GetSession(ctx context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *memoryStore) Questions(ctx context.Context, sessionID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qs, ok := m.questions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]Question, len(qs))
	copy(out, qs)
	return out, nil
}

func (m *memoryStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, qs := range m.questions {
		for _, q := range qs {
			if q.ID == id {
				return q, nil
			}
		}
	}
	return Question{}, ErrQuestionNotFound
}

func (m *memoryStore) ApplyEvent(ctx context.Context, sessionID string, expectPos int, upd *QuestionUpdate, cur Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Status != StatusInProgress {
		return ErrAlreadyFinished
	}
	if s.CurrentPosition != expectPos {
		return ErrStaleEvent
	}
	if upd != nil {
		qs := m.questions[sessionID]
		found := false
		for i := range qs {
			if qs[i].ID == upd.QuestionID {
				qs[i].StudentAnswer = upd.StudentAnswer
				qs[i].IsCorrect = upd.IsCorrect
				qs[i].Skipped = qs[i].Skipped || upd.Skip
				found = true
				break
			}
		}
		if !found {
			return ErrQuestionNotFound
		}
	}
	if cur.Finalize {
		s.Status = StatusFinished
		t := cur.FinishedAt
		s.FinishedAt = &t
	} else {
		s.CurrentPosition = cur.NextPosition
	}
	s.FinishRequested = cur.FinishRequested
	m.sessions[sessionID] = s
	return nil
}

func (m *memoryStore) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Status != StatusInProgress {
		return ErrAlreadyFinished
	}
	s.Status = StatusCancelled
	m.sessions[id] = s
	return nil
}

func (m *memoryStore) SetCorrect(ctx context.Context, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sid, qs := range m.questions {
		for i := range qs {
			if qs[i].ID != questionID {
				continue
			}
			switch {
			case qs[i].IsCorrect == nil:
				return ErrNotAnswered
			case *qs[i].IsCorrect:
				return ErrAlreadyCorrect
			}
			yes := true
			qs[i].IsCorrect = &yes
			m.questions[sid] = qs
			return nil
		}
	}
	return ErrQuestionNotFound
}

func (m *memoryStore) ListSessions(ctx context.Context, opts ListOpts) ([]SessionRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []SessionRow
	for id, s := range m.sessions {
		if opts.StudentID != "" && s.StudentID != opts.StudentID {
			continue
		}
		if opts.Level != "" && s.Level != opts.Level {
			continue
		}
		if opts.Status != "" && s.Status != opts.Status {
			continue
		}
		if !opts.From.IsZero() && (s.FinishedAt == nil || s.FinishedAt.Before(opts.From)) {
			continue
		}
		if !opts.To.IsZero() && (s.FinishedAt == nil || !s.FinishedAt.Before(opts.To)) {
			continue
		}
		rows = append(rows, SessionRow{Session: s, Result: score(m.questions[id])})
	}
	at := func(r SessionRow) time.Time {
		if r.FinishedAt != nil {
			return *r.FinishedAt
		}
		return r.CreatedAt
	}
	sort.Slice(rows, func(i, j int) bool { return at(rows[i]).After(at(rows[j])) })
	if opts.Offset > 0 {
		if opts.Offset >= len(rows) {
			return nil, nil
		}
		rows = rows[opts.Offset:]
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}
