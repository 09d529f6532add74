package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading/llm"
)

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, call int32)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		handler(w, r, n)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestCompleteSendsChatRequest(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "grader-1" || len(body.Messages) != 2 || body.Messages[1].Content != "grade this" {
			t.Errorf("unexpected body: %+v", body)
		}
		reply(w, ` {"feedback": "ok"} `)
	})

	c, err := llm.New(llm.Config{BaseURL: srv.URL + "/", APIKey: "sk-test", Model: "grader-1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Complete(context.Background(), "grade this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `{"feedback": "ok"}` {
		t.Fatalf("Complete = %q", got)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request, n int32) {
		if n < 3 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		reply(w, "{}")
	})
	c, err := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", MaxRetries: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Complete(context.Background(), "p"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		http.Error(w, `{"error": "bad key"}`, http.StatusUnauthorized)
	})
	c, err := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", MaxRetries: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Complete(context.Background(), "p")
	var httpErr *llm.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want HTTP 401", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestCompleteRejectsEmptyReply(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})
	c, err := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Complete(context.Background(), "p"); err == nil {
		t.Fatalf("expected an error for a reply without choices")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := llm.New(llm.Config{}, nil); err == nil {
		t.Fatalf("expected an error without an api key")
	}
}
