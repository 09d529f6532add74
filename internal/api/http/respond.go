package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/auth"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/essay"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
)

// request bodies above this are rejected before decoding
const maxBodyBytes = 1 << 20

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// decodeJSON reads a JSON body into v and runs struct validation.
// It writes the 400 itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error()})
		return false
	}
	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid input"})
			return false
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, grading.ErrInvalidInput),
		errors.Is(err, grading.ErrRubricInconsistent):
		return http.StatusBadRequest
	case errors.Is(err, essay.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, essay.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, essay.ErrInvalidTransition),
		errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(code)
	}
	respondJSON(w, code, errorBody{Error: msg})
}

// actorFrom returns the authenticated caller. Routes are mounted behind the
// JWT middleware so a missing actor only happens on misconfiguration.
func actorFrom(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	a, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
	}
	return a, ok
}
