package grading

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	openingWindow = 300 // runes searched for introduction and thesis markers
	closingWindow = 400 // runes searched for conclusion markers

	complexWordLen     = 8
	veryComplexWordLen = 12
)

var (
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	paragraphSplit = regexp.MustCompile(`\n[ \t\r]*\n`)
)

// Stats are the deterministic text statistics every heuristic rule reads.
type Stats struct {
	Words               int     `json:"words"`
	Sentences           int     `json:"sentences"`
	Paragraphs          int     `json:"paragraphs"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	VocabularyDiversity float64 `json:"vocabulary_diversity"`
	ComplexWords        int     `json:"complex_words"`
	VeryComplexWords    int     `json:"very_complex_words"`
	AcademicWords       int     `json:"academic_words"`
	SpellingErrors      int     `json:"spelling_errors"`
	Transitions         int     `json:"transitions"`
	LogicalConnectors   int     `json:"logical_connectors"`

	HasIntroduction    bool `json:"has_introduction"`
	HasThesis          bool `json:"has_thesis"`
	HasEvidence        bool `json:"has_evidence"`
	HasConclusion      bool `json:"has_conclusion"`
	HasCounterargument bool `json:"has_counterargument"`

	HasCapitalization bool `json:"has_capitalization"`
	HasEndPunctuation bool `json:"has_end_punctuation"`
	HasCommas         bool `json:"has_commas"`
	HasQuotations     bool `json:"has_quotations"`
}

// Analyze computes Stats for text. It is a pure function: identical input
// always yields identical output.
func Analyze(text string) Stats {
	var st Stats
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return st
	}

	tokens := strings.Fields(trimmed)
	st.Words = len(tokens)

	var sentences []string
	for _, s := range sentenceSplit.Split(trimmed, -1) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}
	st.Sentences = len(sentences)

	for _, p := range paragraphSplit.Split(trimmed, -1) {
		if strings.TrimSpace(p) != "" {
			st.Paragraphs++
		}
	}

	if st.Sentences > 0 {
		st.AvgWordsPerSentence = float64(st.Words) / float64(st.Sentences)
	}

	words := cleanWords(trimmed)
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
		n := utf8.RuneCountInString(w)
		if n >= complexWordLen {
			st.ComplexWords++
		}
		if n >= veryComplexWordLen {
			st.VeryComplexWords++
		}
	}
	if st.Words > 0 {
		st.VocabularyDiversity = float64(len(unique)) / float64(st.Words)
	}

	st.AcademicWords = countInSet(words, academicVocabulary)
	st.SpellingErrors = countInSet(words, commonMisspellings)
	st.Transitions = countPhrases(words, transitionWords)
	st.LogicalConnectors = countPhrases(words, logicalConnectors)

	opening := cleanWords(headRunes(trimmed, openingWindow))
	closing := cleanWords(tailRunes(trimmed, closingWindow))
	st.HasIntroduction = containsAnyPhrase(opening, introductionMarkers)
	st.HasThesis = containsAnyPhrase(opening, thesisMarkers)
	st.HasConclusion = containsAnyPhrase(closing, conclusionMarkers)
	st.HasEvidence = containsAnyPhrase(words, evidenceMarkers)
	st.HasCounterargument = containsAnyPhrase(words, counterargumentMarkers)

	last, _ := utf8.DecodeLastRuneInString(strings.TrimRight(trimmed, `"')]”’`))
	st.HasEndPunctuation = last == '.' || last == '!' || last == '?'
	// An unpunctuated run reads as one sentence; its first letter alone says
	// nothing about capitalization.
	st.HasCapitalization = (st.Sentences >= 2 || st.HasEndPunctuation) && capitalizedShare(sentences) >= 0.8
	st.HasCommas = strings.Contains(trimmed, ",")
	st.HasQuotations = strings.ContainsAny(trimmed, `"“”`)
	return st
}

// capitalizedShare is the fraction of sentences whose first letter is upper case.
func capitalizedShare(sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	up := 0
	for _, s := range sentences {
		if r, ok := firstLetter(s); ok && unicode.IsUpper(r) {
			up++
		}
	}
	return float64(up) / float64(len(sentences))
}
