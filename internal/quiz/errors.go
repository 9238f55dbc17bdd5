package quiz

import (
	"errors"
	"fmt"
)

// Callers branch on these with errors.Is. Events never partially apply: when
// one of these comes back, nothing was written.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoContent        = errors.New("no words available for this level")
	ErrInvalidScope     = errors.New("invalid session scope")
	ErrAlreadyFinished  = errors.New("session already finalized")
	ErrAlreadyCorrect   = errors.New("question already marked correct")
	ErrNotAnswered      = errors.New("question was never graded")
	ErrStaleEvent       = errors.New("event targets a stale position")

	// ErrStorageUnavailable wraps driver-level failures; retrying the event
	// later is the caller's call, the engine gives up on the current one.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func wrapStorage(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrNoContent),
		errors.Is(err, ErrInvalidScope),
		errors.Is(err, ErrAlreadyFinished),
		errors.Is(err, ErrAlreadyCorrect),
		errors.Is(err, ErrNotAnswered),
		errors.Is(err, ErrStaleEvent):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}
