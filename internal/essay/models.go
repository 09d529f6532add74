package essay

import (
	"errors"
	"time"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusGrading   Status = "grading"
	StatusGraded    Status = "graded"
	StatusReturned  Status = "returned"
)

type Essay struct {
	ID              string    `json:"id"`
	AssignmentID    string    `json:"assignment_id,omitempty"`
	StudentID       string    `json:"student_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Status          Status    `json:"status"` // submitted|grading|graded|returned
	SubmittedAt     time.Time `json:"submitted_at"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}

type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description,omitempty" validate:"max=20000"`
	RubricID    string    `json:"rubric_id,omitempty"` // empty means the default rubric
	TeacherID   string    `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEssay is what a student submits.
type NewEssay struct {
	AssignmentID string `json:"assignment_id,omitempty"`
	Title        string `json:"title" validate:"required,max=300"`
	Content      string `json:"content" validate:"required"`
}

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPersistence: the store rejected a read or write.
	ErrPersistence = errors.New("persistence failure")
)
