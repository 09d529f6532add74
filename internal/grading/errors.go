package grading

import "errors"

var (
	// ErrInvalidInput: content missing, too short or too long. Grading does not proceed.
	ErrInvalidInput = errors.New("invalid essay input")
	// ErrRubricInconsistent: criteria weights do not sum to max_score, or the rubric is unusable.
	ErrRubricInconsistent = errors.New("rubric inconsistent")
	// ErrExternalService: the optional external grader failed (network, timeout, auth, rate limit).
	ErrExternalService = errors.New("external grader unavailable")
	// ErrInvalidRubricResponse: the external grader replied with something that
	// does not have the required grade structure.
	ErrInvalidRubricResponse = errors.New("invalid rubric response")
	// ErrChunkGrading: a single chunk pass failed and was regraded heuristically.
	ErrChunkGrading = errors.New("chunk grading failed")
)
