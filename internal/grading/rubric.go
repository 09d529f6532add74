package grading

import (
	"fmt"
	"sort"
	"strings"
)

// Default criterion keys. Custom rubrics may use any stable key; the heuristic
// scorer recognises these and their aliases.
const (
	CriterionGrammar         = "grammar"
	CriterionCohesion        = "cohesion"
	CriterionSentenceVariety = "sentence_variety"
	CriterionTone            = "tone"
	CriterionStructure       = "structure"
)

// DefaultRubricID identifies the built-in rubric used when none is supplied.
const DefaultRubricID = "default"

// heuristicScale is the range every heuristic rule is written against.
const heuristicScale = 20

type Criterion struct {
	Weight      int    `json:"weight"`
	Description string `json:"description"`
}

type Rubric struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Criteria    map[string]Criterion `json:"criteria"`
	MaxScore    int                  `json:"max_score"`
}

// DefaultRubric returns the standard 5-criterion / 100-point rubric.
func DefaultRubric() Rubric {
	return Rubric{
		ID:          DefaultRubricID,
		Name:        "Standard Essay Rubric",
		Description: "Five equally weighted criteria covering mechanics, flow, style and organization.",
		Criteria: map[string]Criterion{
			CriterionGrammar:         {Weight: 20, Description: "Grammar, spelling and punctuation"},
			CriterionCohesion:        {Weight: 20, Description: "Logical flow and connection between ideas"},
			CriterionSentenceVariety: {Weight: 20, Description: "Variety in sentence length and structure"},
			CriterionTone:            {Weight: 20, Description: "Academic tone and vocabulary"},
			CriterionStructure:       {Weight: 20, Description: "Introduction, body, conclusion and thesis"},
		},
		MaxScore: 100,
	}
}

// Keys returns the criterion keys in a stable order: the default criteria
// first in their canonical order, then any custom keys alphabetically.
func (r Rubric) Keys() []string {
	keys := make([]string, 0, len(r.Criteria))
	for _, k := range defaultOrder {
		if _, ok := r.Criteria[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range r.Criteria {
		if !containsString(keys, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// WeightSum is the sum of every criterion weight.
func (r Rubric) WeightSum() int {
	sum := 0
	for _, c := range r.Criteria {
		sum += c.Weight
	}
	return sum
}

// Validate enforces the save-time invariants: at least one criterion, every
// weight positive, and max_score equal to the weight sum.
func (r Rubric) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name required", ErrRubricInconsistent)
	}
	if len(r.Criteria) == 0 {
		return fmt.Errorf("%w: at least one criterion required", ErrRubricInconsistent)
	}
	for k, c := range r.Criteria {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: empty criterion key", ErrRubricInconsistent)
		}
		if c.Weight <= 0 {
			return fmt.Errorf("%w: criterion %q weight must be positive", ErrRubricInconsistent, k)
		}
	}
	if sum := r.WeightSum(); sum != r.MaxScore {
		return fmt.Errorf("%w: max_score %d does not match criteria weight sum %d", ErrRubricInconsistent, r.MaxScore, sum)
	}
	return nil
}

// forGrading returns the rubric as used by a grading pass. A rubric that was
// stored without passing Validate gets its max score recomputed from the
// weights so every Grade keeps total <= max_score.
func (r Rubric) forGrading() (Rubric, error) {
	if len(r.Criteria) == 0 {
		return Rubric{}, fmt.Errorf("%w: rubric has no criteria", ErrRubricInconsistent)
	}
	for k, c := range r.Criteria {
		if c.Weight <= 0 {
			return Rubric{}, fmt.Errorf("%w: criterion %q weight must be positive", ErrRubricInconsistent, k)
		}
	}
	if r.MaxScore != r.WeightSum() {
		r.MaxScore = r.WeightSum()
	}
	return r, nil
}

var defaultOrder = []string{
	CriterionGrammar,
	CriterionCohesion,
	CriterionSentenceVariety,
	CriterionTone,
	CriterionStructure,
}

var criterionAliases = map[string]string{
	"grammar":            CriterionGrammar,
	"mechanics":          CriterionGrammar,
	"cohesion":           CriterionCohesion,
	"coherence":          CriterionCohesion,
	"flow":               CriterionCohesion,
	"sentence_variety":   CriterionSentenceVariety,
	"sentence_structure": CriterionSentenceVariety,
	"tone":               CriterionTone,
	"style":              CriterionTone,
	"structure":          CriterionStructure,
	"organization":       CriterionStructure,
}

// canonicalKey maps a rubric key onto one of the default criteria, or "" when
// the key is custom.
func canonicalKey(key string) string {
	return criterionAliases[strings.ToLower(strings.TrimSpace(key))]
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
