package essay

import (
	"context"
	"time"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

type ListOpts struct {
	StudentID    string // filter by author
	AssignmentID string // filter by assignment
	Status       Status // optional
	Limit        int
	Offset       int
}

// Store is the persistence collaborator. Implementations return ErrNotFound
// for missing records and wrap every other failure in ErrPersistence.
type Store interface {
	CreateEssay(ctx context.Context, e Essay) error
	GetEssay(ctx context.Context, id string) (Essay, error)
	ListEssays(ctx context.Context, opts ListOpts) ([]Essay, error)
	// SetStatus moves an essay to `to` only when its current status is one of
	// `from`; otherwise it returns ErrInvalidTransition.
	SetStatus(ctx context.Context, id string, from []Status, to Status, at time.Time) (Essay, error)
	// RevertStaleGrading moves every essay that entered grading before
	// `before` back to submitted and returns how many moved.
	RevertStaleGrading(ctx context.Context, before, at time.Time) (int, error)

	PutAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)

	PutRubric(ctx context.Context, r grading.Rubric) error
	GetRubric(ctx context.Context, id string) (grading.Rubric, error)
	ListRubrics(ctx context.Context) ([]grading.Rubric, error)
	DeleteRubric(ctx context.Context, id string) error

	// UpsertGrade keeps at most one current grade per essay.
	UpsertGrade(ctx context.Context, g grading.Grade) error
	// GetGrade returns nil, nil when the essay has no grade.
	GetGrade(ctx context.Context, essayID string) (*grading.Grade, error)
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
