package grading

import "time"

type GradedBy string

const (
	GradedByAI      GradedBy = "ai"
	GradedByTeacher GradedBy = "teacher"
)

// Grade is the artifact of one grading pass, AI or manual.
type Grade struct {
	EssayID          string            `json:"essay_id"`
	TotalScore       int               `json:"total_score"`
	MaxScore         int               `json:"max_score"`
	CriteriaScores   map[string]int    `json:"criteria_scores"`
	Feedback         string            `json:"feedback"`
	DetailedFeedback map[string]string `json:"detailed_feedback"`
	Suggestions      []string          `json:"suggestions"`
	GradedBy         GradedBy          `json:"graded_by"`
	TeacherID        string            `json:"teacher_id,omitempty"`
	RubricID         string            `json:"rubric_id,omitempty"`
	GradedAt         time.Time         `json:"graded_at"`
	ChunksProcessed  int               `json:"chunks_processed,omitempty"`
}

type SourceKind string

const (
	SourceExternal SourceKind = "external"
	SourceFallback SourceKind = "fallback"
)

// Source records which path produced an AI grade. Reason is set only for
// fallbacks and explains why the external grader was not used.
type Source struct {
	Kind   SourceKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`
}

func External() Source { return Source{Kind: SourceExternal} }

func Fallback(reason string) Source { return Source{Kind: SourceFallback, Reason: reason} }

func (s Source) IsFallback() bool { return s.Kind == SourceFallback }

// Result is what Engine.Grade returns: the grade plus how it was produced.
type Result struct {
	Grade  Grade  `json:"grade"`
	Source Source `json:"source"`
}

// Request is one grading invocation. A nil Rubric means DefaultRubric.
type Request struct {
	Content           string  `json:"content"`
	Title             string  `json:"title"`
	Rubric            *Rubric `json:"rubric,omitempty"`
	AssignmentContext string  `json:"assignment_context,omitempty"`
}
