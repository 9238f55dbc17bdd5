package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/rbac"
)

var viewAll = rbac.NewChecker(nil)

// GET /sessions?student_id=...&level=...&status=...&from=...&to=...&limit=50&offset=0
// RBAC:
// - session:view-all may list any filters
// - session:view-own only sees their own rows (student_id is forced to subject)
func ListSessionsHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles := rbac.RolesFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
		level := strings.TrimSpace(r.URL.Query().Get("level"))
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		from := parseTime(r.URL.Query().Get("from"))
		to := parseTime(r.URL.Query().Get("to"))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		if len(roles) == 0 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if !viewAll.Has(roles, "session:view-all") {
			studentID = sub
		}

		list, err := engine.ListSessions(r.Context(), quiz.ListOpts{
			StudentID: studentID,
			Level:     level,
			Status:    quiz.Status(status),
			From:      from,
			To:        to,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// parseTime accepts RFC3339 or a plain date; zero means unbounded.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
