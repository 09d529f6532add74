package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/essay"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
)

// POST /essays/{essayID}/grade/ai
func GradeEssayHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		res, err := svc.GradeEssay(r.Context(), actor, chi.URLParam(r, "essayID"))
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// POST /essays/{essayID}/grade  (teacher override)
func ManualGradeHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		var in grading.ManualGradeInput
		if !decodeJSON(w, r, &in) {
			return
		}
		g, err := svc.ManualGrade(r.Context(), actor, chi.URLParam(r, "essayID"), in)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, g)
	}
}

// GET /essays/{essayID}/grade
func GetGradeHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		g, err := svc.GetGrade(r.Context(), actor, chi.URLParam(r, "essayID"))
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		if g == nil {
			http.Error(w, "no grade available", http.StatusNotFound)
			return
		}
		respondJSON(w, http.StatusOK, g)
	}
}

type previewReq struct {
	Title             string          `json:"title"`
	Content           string          `json:"content" validate:"required"`
	Rubric            *grading.Rubric `json:"rubric,omitempty"`
	RubricID          string          `json:"rubric_id,omitempty"`
	AssignmentContext string          `json:"assignment_context,omitempty"`
}

// POST /grading/preview  grades text without storing anything
func PreviewGradeHandler(svc *essay.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		var req previewReq
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.PreviewGrade(r.Context(), actor, grading.Request{
			Title:             req.Title,
			Content:           req.Content,
			Rubric:            req.Rubric,
			AssignmentContext: req.AssignmentContext,
		}, req.RubricID)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}
