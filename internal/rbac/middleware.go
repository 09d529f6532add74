package rbac

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Require lets the request through when the caller's role holds perm.
func Require(perm string) func(http.Handler) http.Handler { return Default.Require(perm) }

// RequireAny lets the request through when the role holds any of perms.
func RequireAny(perms ...string) func(http.Handler) http.Handler { return Default.RequireAny(perms...) }

func (c *Checker) Require(perm string) func(http.Handler) http.Handler {
	return c.guard(perm, func(role string) bool { return c.Has(role, perm) })
}

func (c *Checker) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return c.guard(strings.Join(perms, " or "), func(role string) bool { return c.Any(role, perms...) })
}

// guard answers 403 with a JSON error naming the missing permission.
func (c *Checker) guard(need string, allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role := RoleFromContext(r.Context()); role == "" || !allowed(role) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "forbidden: requires " + need})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
