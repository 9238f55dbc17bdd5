package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sardorious/test-me/internal/users"
	"golang.org/x/crypto/bcrypt"
)

// POST /auth/login  { "username": "...", "password": "..." }
//
// Credentials come from the users table. ADMIN_USER/ADMIN_PASS_HASH
// form a bootstrap account that works before any rows exist.
func LoginHandler(a *AuthService, st users.Store, adminUser, adminPassHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		if adminUser != "" && req.Username == adminUser {
			if bcrypt.CompareHashAndPassword([]byte(adminPassHash), []byte(req.Password)) != nil {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			issue(w, a, req.Username, []string{users.RoleAdmin})
			return
		}

		u, err := st.GetByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			http.Error(w, "login unavailable", http.StatusServiceUnavailable)
			return
		}
		if u.IsBlocked {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if u.PasswordHash == "" ||
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		issue(w, a, u.ID, u.Roles)
	}
}

func issue(w http.ResponseWriter, a *AuthService, sub string, roles []string) {
	tok, err := a.IssueJWT(sub, roles)
	if err != nil {
		http.Error(w, "issue token", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
}
