package grading

import (
	"fmt"
	"math"
	"strings"
)

// mergeChunks combines per-chunk results, given in document order, into one
// grade: per-criterion round(mean) re-clamped to the weight, total recomputed,
// narrative and detailed feedback concatenated by part, suggestions unioned.
func mergeChunks(r Rubric, parts []chunkResult) Grade {
	n := len(parts)
	proposed := make(map[string]int, len(r.Criteria))
	for key := range r.Criteria {
		sum := 0
		for _, p := range parts {
			sum += p.Scores[key]
		}
		proposed[key] = int(math.Round(float64(sum) / float64(n)))
	}
	scores, total := ApplyRubric(r, proposed)

	var fb strings.Builder
	fmt.Fprintf(&fb, "This essay was graded in %d parts because of its length; criterion scores are averaged across parts.", n)
	for i, p := range parts {
		fmt.Fprintf(&fb, "\n\nPart %d: %s", i+1, p.Feedback)
	}

	detailed := make(map[string]string, len(r.Criteria))
	for key := range r.Criteria {
		lines := make([]string, 0, n)
		for i, p := range parts {
			lines = append(lines, fmt.Sprintf("Part %d: %s", i+1, p.Detailed[key]))
		}
		detailed[key] = strings.Join(lines, "\n")
	}

	var suggestions []string
	for _, p := range parts {
		suggestions = append(suggestions, p.Suggestions...)
	}
	suggestions = dedupe(suggestions)

	return Grade{
		TotalScore:       total,
		CriteriaScores:   scores,
		Feedback:         fb.String(),
		DetailedFeedback: detailed,
		Suggestions:      suggestions,
		ChunksProcessed:  n,
	}
}
