package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/essay"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
)

// POST /essays
func SubmitEssayHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		var in essay.NewEssay
		if !decodeJSON(w, r, &in) {
			return
		}
		e, err := svc.SubmitEssay(r.Context(), actor, in)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusCreated, e)
	}
}

// GET /essays?status=&assignment_id=&student_id=&limit=&offset=
func ListEssaysHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		opts := essay.ListOpts{
			StudentID:    strings.TrimSpace(q.Get("student_id")),
			AssignmentID: strings.TrimSpace(q.Get("assignment_id")),
			Status:       essay.Status(strings.TrimSpace(q.Get("status"))),
		}
		var err error
		if opts.Limit, err = intParam(q.Get("limit"), 50); err != nil {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		if opts.Offset, err = intParam(q.Get("offset"), 0); err != nil {
			http.Error(w, "bad offset", http.StatusBadRequest)
			return
		}
		if opts.Limit == 0 || opts.Limit > 200 {
			opts.Limit = 200
		}

		list, err := svc.ListEssays(r.Context(), actor, opts)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /essays/{essayID}
func GetEssayHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		e, err := svc.GetEssay(r.Context(), actor, chi.URLParam(r, "essayID"))
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, e)
	}
}

// POST /essays/{essayID}/return
func ReturnEssayHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		e, err := svc.ReturnEssay(r.Context(), actor, chi.URLParam(r, "essayID"))
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, e)
	}
}

// GET /essays/{essayID}/events?after=
func ListEventsHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		after, err := intParam(r.URL.Query().Get("after"), 0)
		if err != nil {
			http.Error(w, "bad after", http.StatusBadRequest)
			return
		}
		events, err := svc.ListEvents(r.Context(), actor, chi.URLParam(r, "essayID"), int64(after))
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, events)
	}
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
