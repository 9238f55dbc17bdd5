package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sardorious/test-me/internal/users"
)

// GET /users?role=teacher
func ListUsersHandler(st users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := strings.TrimSpace(r.URL.Query().Get("role"))
		list, err := st.List(r.Context(), role)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// POST /users/{userID}/roles  { "role": "teacher" }
func GrantRoleHandler(st users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(chi.URLParam(r, "userID"))
		var req struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := st.GrantRole(r.Context(), userID, strings.TrimSpace(req.Role)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /users/{userID}/roles/{role}
func RevokeRoleHandler(st users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(chi.URLParam(r, "userID"))
		role := strings.TrimSpace(chi.URLParam(r, "role"))
		if err := st.RevokeRole(r.Context(), userID, role); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /users/{userID}/password  { "password": "..." }
//
// Admin-set password; gives a Telegram-registered user API access.
func SetPasswordHandler(st users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(chi.URLParam(r, "userID"))
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Password == "" {
			http.Error(w, "password required", http.StatusBadRequest)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := st.SetPassword(r.Context(), userID, string(hash)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
