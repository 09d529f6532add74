package grading

import (
	"fmt"
	"strings"
)

// buildPrompt renders the instruction sent to the external grader for one
// chunk. The reply format mirrors externalReply.
func buildPrompt(r Rubric, req Request, ch Chunk, total int) string {
	var b strings.Builder
	b.WriteString("You are an experienced writing teacher grading a student essay against a rubric.\n")
	b.WriteString("Score every criterion with an integer between 0 and its weight.\n\n")

	fmt.Fprintf(&b, "Rubric: %s (maximum %d points)\n", r.Name, r.MaxScore)
	for _, key := range r.Keys() {
		c := r.Criteria[key]
		fmt.Fprintf(&b, "- %s (weight %d): %s\n", key, c.Weight, c.Description)
	}

	if t := strings.TrimSpace(req.Title); t != "" {
		fmt.Fprintf(&b, "\nEssay title: %s\n", t)
	}
	if ac := strings.TrimSpace(req.AssignmentContext); ac != "" {
		fmt.Fprintf(&b, "Assignment: %s\n", ac)
	}
	if total > 1 {
		fmt.Fprintf(&b, "\nThis is part %d of %d of a longer essay (%s section). Grade only this part.\n",
			ch.Index+1, total, ch.Position)
	}

	b.WriteString("\nEssay:\n<<<\n")
	b.WriteString(ch.Text)
	b.WriteString("\n>>>\n\n")

	b.WriteString("Reply with a single JSON object and nothing else:\n")
	b.WriteString(`{"criteria_scores": {"<criterion>": <integer>}, "feedback": "<overall feedback>", `)
	b.WriteString(`"detailed_feedback": {"<criterion>": "<explanation>"}, "suggestions": ["<improvement>"]}`)
	b.WriteString("\n")
	return b.String()
}
