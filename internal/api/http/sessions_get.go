package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/rbac"
)

// GET /sessions/{sessionID}
//
// Totals and the mistake list are recomputed from the question rows on
// every call; nothing here is read from stored aggregates.
func SessionSummaryHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		if sessionID == "" {
			http.Error(w, "sessionID required", http.StatusBadRequest)
			return
		}

		sum, err := engine.Summary(r.Context(), sessionID)
		if err != nil {
			writeErr(w, err)
			return
		}

		roles := rbac.RolesFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		if !viewAll.Has(roles, "session:view-all") && sum.Session.StudentID != sub {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}
