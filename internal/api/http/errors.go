package http

import (
	"errors"
	"net/http"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/users"
	"github.com/Sardorious/test-me/internal/vocab"
)

// writeErr maps the domain error taxonomy onto HTTP status codes so
// the handlers stay one-liner on their error paths.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrSessionNotFound),
		errors.Is(err, quiz.ErrQuestionNotFound),
		errors.Is(err, vocab.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrAlreadyFinished),
		errors.Is(err, quiz.ErrStaleEvent),
		errors.Is(err, quiz.ErrAlreadyCorrect),
		errors.Is(err, users.ErrExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrInvalidScope),
		errors.Is(err, quiz.ErrNotAnswered),
		errors.Is(err, quiz.ErrNoContent),
		errors.Is(err, vocab.ErrInvalidLevel),
		errors.Is(err, vocab.ErrUnitLimit),
		errors.Is(err, vocab.ErrEmptyWord),
		errors.Is(err, users.ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quiz.ErrStorageUnavailable):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
