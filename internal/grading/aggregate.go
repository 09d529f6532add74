package grading

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// ApplyRubric clamps every proposed score to [0, weight] of its criterion and
// recomputes the total as their sum. Keys missing from proposed score 0 and
// keys not in the rubric are dropped. Any caller-supplied total is ignored by
// construction.
func ApplyRubric(r Rubric, proposed map[string]int) (map[string]int, int) {
	scores := make(map[string]int, len(r.Criteria))
	total := 0
	for key, c := range r.Criteria {
		v := clamp(proposed[key], 0, c.Weight)
		scores[key] = v
		total += v
	}
	return scores, total
}

// ManualGradeInput is what a teacher submits. TotalScore is accepted for
// wire compatibility and never trusted.
type ManualGradeInput struct {
	CriteriaScores   map[string]int    `json:"criteria_scores" validate:"required"`
	TotalScore       *int              `json:"total_score,omitempty"`
	Feedback         string            `json:"feedback"`
	DetailedFeedback map[string]string `json:"detailed_feedback,omitempty"`
	Suggestions      []string          `json:"suggestions,omitempty"`
}

// ManualGrade builds a teacher grade through the same clamping path the
// engine uses, filling any missing narrative so the Grade invariants hold.
func ManualGrade(r Rubric, in ManualGradeInput, teacherID string, at time.Time) Grade {
	scores, total := ApplyRubric(r, in.CriteriaScores)
	detailed := make(map[string]string, len(r.Criteria))
	for key, c := range r.Criteria {
		if fb := strings.TrimSpace(in.DetailedFeedback[key]); fb != "" {
			detailed[key] = fb
			continue
		}
		detailed[key] = fmt.Sprintf("%s: %d/%d (%s).", criterionName(key), scores[key], c.Weight, band(scores[key], c.Weight))
	}
	feedback := strings.TrimSpace(in.Feedback)
	if feedback == "" {
		feedback = fmt.Sprintf("Graded by teacher: %d/%d (%d%%).", total, r.MaxScore, scorePercent(total, r.MaxScore))
	}
	return Grade{
		TotalScore:       total,
		MaxScore:         r.MaxScore,
		CriteriaScores:   scores,
		Feedback:         feedback,
		DetailedFeedback: detailed,
		Suggestions:      dedupe(trimAll(in.Suggestions)),
		GradedBy:         GradedByTeacher,
		TeacherID:        teacherID,
		RubricID:         r.ID,
		GradedAt:         at.UTC(),
	}
}

// externalReply is the JSON shape the external grader is asked to return.
type externalReply struct {
	CriteriaScores   map[string]float64 `json:"criteria_scores"`
	TotalScore       *float64           `json:"total_score,omitempty"`
	Feedback         string             `json:"feedback"`
	DetailedFeedback map[string]string  `json:"detailed_feedback"`
	Suggestions      []string           `json:"suggestions"`
}

// ExternalGrade is a structurally valid external reply, already clamped to the rubric.
type ExternalGrade struct {
	Scores      map[string]int
	Total       int
	Feedback    string
	Detailed    map[string]string
	Suggestions []string
}

// ParseExternalResponse extracts the JSON object from a raw external reply
// and validates it against r. Fractional scores are rounded before clamping.
func ParseExternalResponse(raw string, r Rubric) (ExternalGrade, error) {
	body, ok := extractJSONObject(raw)
	if !ok {
		return ExternalGrade{}, fmt.Errorf("%w: no JSON object in reply", ErrInvalidRubricResponse)
	}
	var rep externalReply
	if err := json.Unmarshal([]byte(body), &rep); err != nil {
		return ExternalGrade{}, fmt.Errorf("%w: %v", ErrInvalidRubricResponse, err)
	}
	if rep.CriteriaScores == nil {
		return ExternalGrade{}, fmt.Errorf("%w: criteria_scores missing", ErrInvalidRubricResponse)
	}
	if strings.TrimSpace(rep.Feedback) == "" {
		return ExternalGrade{}, fmt.Errorf("%w: feedback missing", ErrInvalidRubricResponse)
	}
	proposed := make(map[string]int, len(rep.CriteriaScores))
	for k, v := range rep.CriteriaScores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		proposed[k] = int(math.Round(v))
	}
	scores, total := ApplyRubric(r, proposed)
	detailed := make(map[string]string, len(r.Criteria))
	for key := range r.Criteria {
		if fb := strings.TrimSpace(rep.DetailedFeedback[key]); fb != "" {
			detailed[key] = fb
		}
	}
	return ExternalGrade{
		Scores:      scores,
		Total:       total,
		Feedback:    strings.TrimSpace(rep.Feedback),
		Detailed:    detailed,
		Suggestions: dedupe(trimAll(rep.Suggestions)),
	}, nil
}

// extractJSONObject tolerates code fences and prose around the object by
// taking everything from the first '{' to the last '}'.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
