package bot

import "sync"

// step is where a chat currently is in one of the bot's flows. Long-poll
// updates arrive one at a time per chat, so a plain map under a mutex is
// enough; the durable truth (users, sessions, answers) lives in the DB.
type step int

const (
	stepIdle step = iota

	stepRegFirstName
	stepRegLastName
	stepRegPhone
	stepRegLevel
	stepRegDirection

	stepTestLevel
	stepTestDirection
	stepTestCount
	stepTestAnswer

	stepTeacherIdent

	stepUploadLevel
	stepUploadUnit
	stepUploadUnitName
	stepUploadListName
	stepUploadWords

	stepResultsFilter
)

type chatState struct {
	step step

	// registration scratch
	firstName string
	lastName  string
	phone     string

	// shared level/direction picks (registration, test, upload)
	level     string
	direction string

	// active test
	sessionID string
	position  int

	// upload scratch
	uploadUnitID string
	uploadList   string

	// results filters
	filterDay    string
	filterDegree string
}

type stateStore struct {
	mu    sync.Mutex
	chats map[int64]*chatState
}

func newStateStore() *stateStore {
	return &stateStore{chats: make(map[int64]*chatState)}
}

// get returns the chat's state, creating an idle one if needed.
func (s *stateStore) get(chatID int64) *chatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.chats[chatID]
	if !ok {
		st = &chatState{}
		s.chats[chatID] = st
	}
	return st
}

func (s *stateStore) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, chatID)
}
