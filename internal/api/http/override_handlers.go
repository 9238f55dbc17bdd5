package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Sardorious/test-me/internal/quiz"
)

// POST /questions/{questionID}/correct
//
// Flips a graded-wrong answer to correct. The percent shown anywhere
// afterwards picks the change up automatically because results are
// recomputed on read.
func MarkCorrectHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID := strings.TrimSpace(chi.URLParam(r, "questionID"))
		if questionID == "" {
			http.Error(w, "questionID required", http.StatusBadRequest)
			return
		}
		if err := engine.MarkCorrect(r.Context(), questionID); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
