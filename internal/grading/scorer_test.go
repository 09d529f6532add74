package grading_test

import (
	"reflect"
	"testing"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

func TestScoreCriteriaBaseline(t *testing.T) {
	got := grading.ScoreCriteria(grading.Stats{}, grading.DefaultRubric())
	want := map[string]int{
		"grammar":          12,
		"cohesion":         10,
		"sentence_variety": 8,
		"tone":             12,
		"structure":        8,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ScoreCriteria(zero) = %v, want %v", got, want)
	}
}

func TestScoreCriteriaRules(t *testing.T) {
	full := grading.Stats{
		Words:               600,
		Sentences:           30,
		Paragraphs:          6,
		AvgWordsPerSentence: 20,
		VocabularyDiversity: 0.75,
		ComplexWords:        40,
		AcademicWords:       5,
		Transitions:         6,
		LogicalConnectors:   4,
		HasIntroduction:     true,
		HasThesis:           true,
		HasEvidence:         true,
		HasConclusion:       true,
		HasCounterargument:  true,
		HasCapitalization:   true,
		HasEndPunctuation:   true,
		HasCommas:           true,
		HasQuotations:       true,
	}

	cases := []struct {
		name  string
		stats func() grading.Stats
		key   string
		want  int
	}{
		{"every grammar bonus clamps to 20", func() grading.Stats { return full }, "grammar", 20},
		{"spelling penalty caps at 6", func() grading.Stats { s := full; s.SpellingErrors = 9; return s }, "grammar", 14},
		{"one spelling error", func() grading.Stats { s := full; s.SpellingErrors = 1; return s }, "grammar", 18},
		{"cohesion clamps to 20", func() grading.Stats { return full }, "cohesion", 20},
		{"few transitions", func() grading.Stats {
			return grading.Stats{Transitions: 1, Paragraphs: 3}
		}, "cohesion", 13},
		{"sentence length in outer band", func() grading.Stats {
			return grading.Stats{AvgWordsPerSentence: 33}
		}, "sentence_variety", 10},
		{"sentence length outside every band", func() grading.Stats {
			return grading.Stats{AvgWordsPerSentence: 60}
		}, "sentence_variety", 8},
		{"tone for a 250 word essay", func() grading.Stats {
			return grading.Stats{Words: 250, HasEvidence: true}
		}, "tone", 15},
		{"structure with only a conclusion", func() grading.Stats {
			return grading.Stats{HasConclusion: true, HasThesis: true}
		}, "structure", 14},
		{"structure full", func() grading.Stats { return full }, "structure", 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := grading.ScoreCriteria(tc.stats(), grading.DefaultRubric())
			if got[tc.key] != tc.want {
				t.Fatalf("%s = %d, want %d", tc.key, got[tc.key], tc.want)
			}
		})
	}
}

func TestScoreCriteriaCustomRubric(t *testing.T) {
	r := grading.Rubric{
		Name:     "Custom",
		MaxScore: 50,
		Criteria: map[string]grading.Criterion{
			"mechanics": {Weight: 10},
			"clarity":   {Weight: 30},
			"flow":      {Weight: 10},
		},
	}
	got := grading.ScoreCriteria(grading.Stats{}, r)
	// mechanics is grammar 12/20 on 10 points, flow is cohesion 10/20, clarity
	// takes the mean of the five baseline rules (10/20) on 30 points.
	want := map[string]int{"mechanics": 6, "clarity": 15, "flow": 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ScoreCriteria(custom) = %v, want %v", got, want)
	}
	for key, v := range got {
		if v < 0 || v > r.Criteria[key].Weight {
			t.Errorf("%s = %d outside [0, %d]", key, v, r.Criteria[key].Weight)
		}
	}
}
