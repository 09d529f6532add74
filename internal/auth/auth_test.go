package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/auth"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/db"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := auth.NewAuthService("s3cret", time.Hour)
	tok, err := a.IssueJWT(auth.Actor{ID: "u-1", Username: "ana", Role: auth.RoleTeacher})
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := c.Actor(); got != (auth.Actor{ID: "u-1", Username: "ana", Role: auth.RoleTeacher}) {
		t.Fatalf("actor = %+v", got)
	}

	if _, err := auth.NewAuthService("other", time.Hour).Parse(tok); err == nil {
		t.Fatalf("token signed with another secret must not parse")
	}
}

func TestParseRejectsUnknownRole(t *testing.T) {
	a := auth.NewAuthService("s3cret", time.Hour)
	tok, err := a.IssueJWT(auth.Actor{ID: "u-1", Role: "janitor"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Parse(tok); err == nil {
		t.Fatalf("unknown role should be rejected")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := auth.NewAuthService("s3cret", time.Hour)
	var got auth.Actor
	var role string
	h := auth.JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.ActorFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", rec.Code)
	}

	tok, _ := a.IssueJWT(auth.Actor{ID: "s-9", Role: auth.RoleStudent})
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got.ID != "s-9" || role != auth.RoleStudent {
		t.Fatalf("status %d actor %+v role %q", rec.Code, got, role)
	}
}

func TestUserStores(t *testing.T) {
	sqlDB, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	stores := map[string]auth.UserStore{
		"memory": auth.NewMemoryUserStore(),
		"sql":    auth.NewSQLUserStore(sqlDB),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u, err := auth.NewUser("bo", "pw-123", auth.RoleStudent)
			if err != nil {
				t.Fatal(err)
			}
			if err := store.CreateUser(ctx, u); err != nil {
				t.Fatalf("CreateUser: %v", err)
			}
			dup, _ := auth.NewUser("bo", "other", auth.RoleTeacher)
			if err := store.CreateUser(ctx, dup); !errors.Is(err, auth.ErrUserExists) {
				t.Fatalf("duplicate err = %v, want ErrUserExists", err)
			}

			if _, err := auth.Authenticate(ctx, store, "bo", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
				t.Fatalf("wrong password err = %v", err)
			}
			if _, err := auth.Authenticate(ctx, store, "nobody", "pw-123"); !errors.Is(err, auth.ErrInvalidCredentials) {
				t.Fatalf("unknown user err = %v", err)
			}
			got, err := auth.Authenticate(ctx, store, "bo", "pw-123")
			if err != nil || got.ID != u.ID || got.Role != auth.RoleStudent {
				t.Fatalf("Authenticate = %+v, %v", got, err)
			}

			if err := auth.EnsureAdmin(ctx, store, "root", u.PasswordHash); err != nil {
				t.Fatalf("EnsureAdmin: %v", err)
			}
			if err := auth.EnsureAdmin(ctx, store, "root", u.PasswordHash); err != nil {
				t.Fatalf("EnsureAdmin twice: %v", err)
			}
			list, err := store.ListUsers(ctx)
			if err != nil || len(list) != 2 || list[0].Username != "bo" || list[1].Role != auth.RoleAdmin {
				t.Fatalf("ListUsers = %+v, %v", list, err)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	users := auth.NewMemoryUserStore()
	u, _ := auth.NewUser("tess", "chalk", auth.RoleTeacher)
	if err := users.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	a := auth.NewAuthService("s3cret", time.Hour)
	h := auth.LoginHandler(a, users, logger.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"tess","password":"nope"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"tess","password":"chalk"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(out.AccessToken)
	if err != nil || c.Sub != u.ID || out.Role != auth.RoleTeacher {
		t.Fatalf("token claims = %+v, %v", c, err)
	}
}
