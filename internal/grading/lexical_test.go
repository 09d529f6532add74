package grading_test

import (
	"reflect"
	"testing"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

func TestAnalyzeWellStructuredEssay(t *testing.T) {
	st := grading.Analyze(wellStructuredEssay)

	if st.Words != 323 {
		t.Errorf("words = %d, want 323", st.Words)
	}
	if st.Sentences != 18 {
		t.Errorf("sentences = %d, want 18", st.Sentences)
	}
	if st.Paragraphs != 5 {
		t.Errorf("paragraphs = %d, want 5", st.Paragraphs)
	}
	if st.SpellingErrors != 0 {
		t.Errorf("spelling errors = %d, want 0", st.SpellingErrors)
	}
	if st.Transitions < 3 {
		t.Errorf("transitions = %d, want >= 3", st.Transitions)
	}
	for name, ok := range map[string]bool{
		"introduction":    st.HasIntroduction,
		"thesis":          st.HasThesis,
		"evidence":        st.HasEvidence,
		"conclusion":      st.HasConclusion,
		"counterargument": st.HasCounterargument,
		"capitalization":  st.HasCapitalization,
		"end punctuation": st.HasEndPunctuation,
		"commas":          st.HasCommas,
	} {
		if !ok {
			t.Errorf("expected %s to be detected", name)
		}
	}
	if st.HasQuotations {
		t.Errorf("no quotation marks in the essay")
	}
}

func TestAnalyzeWeakEssay(t *testing.T) {
	st := grading.Analyze(weakEssay)

	if st.Words != 64 || st.Sentences != 1 || st.Paragraphs != 1 {
		t.Fatalf("words/sentences/paragraphs = %d/%d/%d, want 64/1/1", st.Words, st.Sentences, st.Paragraphs)
	}
	if st.HasCapitalization || st.HasEndPunctuation || st.HasCommas {
		t.Errorf("unexpected punctuation flags: %+v", st)
	}
	if st.HasIntroduction || st.HasThesis || st.HasConclusion || st.HasEvidence {
		t.Errorf("unexpected structural flags: %+v", st)
	}
	if st.VocabularyDiversity > 0.6 {
		t.Errorf("diversity = %.3f, want <= 0.6", st.VocabularyDiversity)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if got := grading.Analyze("   \n\t "); !reflect.DeepEqual(got, grading.Stats{}) {
		t.Fatalf("Analyze(blank) = %+v, want zero Stats", got)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := grading.Analyze(wellStructuredEssay)
	b := grading.Analyze(wellStructuredEssay)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Analyze is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestAnalyzeMatchesWholeWords(t *testing.T) {
	cases := []struct {
		name string
		text string
		want func(grading.Stats) bool
	}{
		{
			name: "student is not study",
			text: "Every student in the class wrote quietly.",
			want: func(st grading.Stats) bool { return !st.HasEvidence },
		},
		{
			name: "punctuated marker still matches",
			text: "Research, as the teacher said, matters.",
			want: func(st grading.Stats) bool { return st.HasEvidence },
		},
		{
			name: "multi-word phrase needs consecutive words",
			text: "On the table, the other hand was raised.",
			want: func(st grading.Stats) bool { return st.Transitions == 0 },
		},
		{
			name: "phrase split by punctuation still matches",
			text: "We waited. In conclusion, nothing happened.",
			want: func(st grading.Stats) bool { return st.HasConclusion },
		},
		{
			name: "misspellings are case insensitive",
			text: "Teh result was Definately wierd.",
			want: func(st grading.Stats) bool { return st.SpellingErrors == 3 },
		},
		{
			name: "closing quote after end punctuation",
			text: `She said "we are done."`,
			want: func(st grading.Stats) bool { return st.HasEndPunctuation && st.HasQuotations },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if st := grading.Analyze(tc.text); !tc.want(st) {
				t.Fatalf("unexpected stats for %q: %+v", tc.text, st)
			}
		})
	}
}
