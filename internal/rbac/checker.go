package rbac

import (
	"context"
	"strings"
)

type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

// Has reports whether any of the held roles carries the permission.
func (c *Checker) Has(roles []string, perm string) bool {
	for _, role := range roles {
		perms, ok := c.RolePermissions[role]
		if !ok {
			continue
		}
		for _, p := range perms {
			if p == "*" || matchPerm(p, perm) {
				return true
			}
		}
	}
	return false
}

func (c *Checker) Any(roles []string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(roles, p) {
			return true
		}
	}
	return false
}

func (c *Checker) All(roles []string, perms ...string) bool {
	for _, p := range perms {
		if !c.Has(roles, p) {
			return false
		}
	}
	return true
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// ---- identity in context ----

type ctxKey int

const (
	ctxKeySubject ctxKey = iota
	ctxKeyRoles
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySubject, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySubject); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ctxKeyRoles, roles)
}

func RolesFromContext(ctx context.Context) []string {
	if v := ctx.Value(ctxKeyRoles); v != nil {
		if rs, ok := v.([]string); ok {
			return rs
		}
	}
	return nil
}
