package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/essay"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
)

// GET /rubrics
func ListRubricsHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		list, err := svc.ListRubrics(r.Context(), actor)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /rubrics/{rubricID}
func GetRubricHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		rb, err := svc.GetRubric(r.Context(), actor, chi.URLParam(r, "rubricID"))
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, rb)
	}
}

// POST /rubrics creates; PUT /rubrics/{rubricID} replaces.
func SaveRubricHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		var rb grading.Rubric
		if !decodeJSON(w, r, &rb) {
			return
		}
		status := http.StatusCreated
		if id := chi.URLParam(r, "rubricID"); id != "" {
			rb.ID = id
			status = http.StatusOK
		}
		saved, err := svc.SaveRubric(r.Context(), actor, rb)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, status, saved)
	}
}

// DELETE /rubrics/{rubricID}
func DeleteRubricHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteRubric(r.Context(), actor, chi.URLParam(r, "rubricID")); err != nil {
			respondErr(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /assignments
func SaveAssignmentHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		var a essay.Assignment
		if !decodeJSON(w, r, &a) {
			return
		}
		saved, err := svc.SaveAssignment(r.Context(), actor, a)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusCreated, saved)
	}
}

// GET /assignments/{assignmentID}
func GetAssignmentHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		a, err := svc.GetAssignment(r.Context(), actor, chi.URLParam(r, "assignmentID"))
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, a)
	}
}
