package grading

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const encouragement = "Excellent work! Keep refining your writing by reading widely and practicing regularly."

var criterionNames = map[string]string{
	CriterionGrammar:         "Grammar & Mechanics",
	CriterionCohesion:        "Cohesion & Flow",
	CriterionSentenceVariety: "Sentence Variety",
	CriterionTone:            "Academic Tone",
	CriterionStructure:       "Structure & Organization",
}

// criterionName is the display name of a rubric key.
func criterionName(key string) string {
	if n, ok := criterionNames[canonicalKey(key)]; ok {
		return n
	}
	s := strings.ReplaceAll(strings.TrimSpace(key), "_", " ")
	if s == "" {
		return key
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// band turns a score into its qualitative label. Breakpoints are 90/75/60
// percent of the weight, i.e. 18/15/12 on a 20-point criterion.
func band(score, weight int) string {
	switch {
	case weight <= 0:
		return "needs improvement"
	case score*100 >= 90*weight:
		return "excellent"
	case score*100 >= 75*weight:
		return "good"
	case score*100 >= 60*weight:
		return "adequate"
	default:
		return "needs improvement"
	}
}

// DetailedFeedback writes one paragraph per rubric criterion.
func DetailedFeedback(st Stats, r Rubric, scores map[string]int) map[string]string {
	out := make(map[string]string, len(r.Criteria))
	for key, c := range r.Criteria {
		out[key] = criterionFeedback(key, scores[key], c.Weight, st)
	}
	return out
}

func criterionFeedback(key string, score, weight int, st Stats) string {
	head := fmt.Sprintf("%s: %d/%d (%s).", criterionName(key), score, weight, band(score, weight))
	obs := observations(canonicalKey(key), st)
	if len(obs) == 0 {
		return head
	}
	return head + " " + strings.Join(obs, " ")
}

func observations(canon string, st Stats) []string {
	switch canon {
	case CriterionGrammar:
		return []string{
			fmt.Sprintf("Spelling errors found: %d.", st.SpellingErrors),
			pick(st.HasCapitalization,
				"Sentences consistently begin with capital letters.",
				"Several sentences do not begin with a capital letter."),
			pick(st.HasEndPunctuation,
				"Sentence-ending punctuation is used correctly.",
				"Sentence-ending punctuation is missing or inconsistent."),
		}
	case CriterionCohesion:
		return []string{
			fmt.Sprintf("Transition words used: %d.", st.Transitions),
			framingObservation(st),
			fmt.Sprintf("Paragraphs: %d.", st.Paragraphs),
		}
	case CriterionSentenceVariety:
		return []string{
			fmt.Sprintf("Average sentence length: %.1f words across %d sentences.", st.AvgWordsPerSentence, st.Sentences),
			fmt.Sprintf("Vocabulary diversity: %d%%.", percent(st.VocabularyDiversity)),
			fmt.Sprintf("Complex words (8+ letters): %d.", st.ComplexWords),
		}
	case CriterionTone:
		return []string{
			fmt.Sprintf("Academic vocabulary terms: %d.", st.AcademicWords),
			pick(st.HasEvidence,
				"Claims are supported with evidence.",
				"Claims are not yet supported with evidence."),
			fmt.Sprintf("Length: %d words.", st.Words),
		}
	case CriterionStructure:
		return []string{
			pick(st.HasThesis, "A thesis statement is present.", "No clear thesis statement was found."),
			framingObservation(st),
			pick(st.HasCounterargument, "The essay acknowledges opposing views.", "Opposing views are not addressed."),
		}
	default:
		return []string{"Scored from the overall writing quality indicators."}
	}
}

func framingObservation(st Stats) string {
	switch {
	case st.HasIntroduction && st.HasConclusion:
		return "The essay opens with an introduction and closes with a conclusion."
	case st.HasIntroduction:
		return "An introduction is present but the conclusion is missing."
	case st.HasConclusion:
		return "A conclusion is present but the introduction is missing."
	default:
		return "Neither a clear introduction nor a conclusion was detected."
	}
}

// Summary is the aggregate narrative of one grading pass.
func Summary(title string, st Stats, r Rubric, scores map[string]int, total int, pos Position) string {
	var b strings.Builder
	if t := strings.TrimSpace(title); t != "" {
		fmt.Fprintf(&b, "Essay Assessment: %q\n\n", t)
	} else {
		b.WriteString("Essay Assessment\n\n")
	}
	pct := scorePercent(total, r.MaxScore)
	fmt.Fprintf(&b, "Overall Score: %d/%d (%d%%)\n", total, r.MaxScore, pct)
	if note := positionNote(pos); note != "" {
		b.WriteString(note + "\n")
	}

	b.WriteString("\nEssay Statistics:\n")
	fmt.Fprintf(&b, "- Words: %d\n", st.Words)
	fmt.Fprintf(&b, "- Sentences: %d\n", st.Sentences)
	fmt.Fprintf(&b, "- Paragraphs: %d\n", st.Paragraphs)
	fmt.Fprintf(&b, "- Average words per sentence: %.1f\n", st.AvgWordsPerSentence)
	fmt.Fprintf(&b, "- Vocabulary diversity: %d%%\n", percent(st.VocabularyDiversity))
	fmt.Fprintf(&b, "- Complex words: %d\n", st.ComplexWords)

	b.WriteString("\nStructural Elements:\n")
	fmt.Fprintf(&b, "- Introduction: %s\n", presence(st.HasIntroduction))
	fmt.Fprintf(&b, "- Thesis statement: %s\n", presence(st.HasThesis))
	fmt.Fprintf(&b, "- Supporting evidence: %s\n", presence(st.HasEvidence))
	fmt.Fprintf(&b, "- Counterargument: %s\n", presence(st.HasCounterargument))
	fmt.Fprintf(&b, "- Conclusion: %s\n", presence(st.HasConclusion))

	fmt.Fprintf(&b, "\nOverall Assessment: %s\n", overallAssessment(pct))

	b.WriteString("\nScore Breakdown:\n")
	for _, key := range r.Keys() {
		fmt.Fprintf(&b, "- %s: %d/%d\n", criterionName(key), scores[key], r.Criteria[key].Weight)
	}
	return strings.TrimRight(b.String(), "\n")
}

func overallAssessment(pct int) string {
	switch {
	case pct >= 85:
		return "Excellent work. The essay is well organized, clearly written and well supported."
	case pct >= 75:
		return "Good work. The essay is solid overall with a few areas that could be strengthened."
	case pct >= 65:
		return "Satisfactory work. The essay meets the basic requirements but needs further development."
	default:
		return "Needs improvement. Focus on the suggestions below to develop structure, support and clarity."
	}
}

func positionNote(pos Position) string {
	switch pos {
	case PositionFirst:
		return "Section context: this part opens the essay."
	case PositionMiddle:
		return "Section context: this part comes from the body of the essay."
	case PositionLast:
		return "Section context: this part closes the essay."
	default:
		return ""
	}
}

// Suggestions lists improvement hints in a fixed order, each gated by its own
// threshold. When nothing triggers, the list holds a single encouragement.
func Suggestions(st Stats) []string {
	var out []string
	add := func(cond bool, s string) {
		if cond {
			out = append(out, s)
		}
	}
	add(st.Words < 250, fmt.Sprintf("Expand your essay to develop your ideas more fully: it has %d words, aim for at least 300.", st.Words))
	add(!st.HasIntroduction, "Add a clear introduction that presents the topic and previews your main points.")
	add(!st.HasThesis, "State your thesis explicitly near the beginning so readers know what you are arguing.")
	add(!st.HasConclusion, "Finish with a conclusion that summarizes your argument and its significance.")
	add(!st.HasEvidence, "Add supporting evidence such as examples, data or references to research.")
	add(st.Transitions < 3, "Use more transition words (however, furthermore, therefore) to connect your ideas.")
	add(st.SpellingErrors > 0, fmt.Sprintf("Proofread carefully: %d likely spelling errors were found.", st.SpellingErrors))
	add(!st.HasCapitalization || !st.HasEndPunctuation, "Check sentence punctuation and capitalization so every sentence starts with a capital letter and ends with a period, question mark or exclamation mark.")
	add(st.AvgWordsPerSentence > 25, fmt.Sprintf("Break up long sentences: the average is %.1f words per sentence.", st.AvgWordsPerSentence))
	add(st.Sentences > 0 && st.AvgWordsPerSentence < 12, "Combine some short sentences into longer, more developed ones.")
	add(st.Paragraphs < 3, "Organize the essay into clear paragraphs: an introduction, body paragraphs and a conclusion.")
	add(st.Words > 0 && st.VocabularyDiversity < 0.5, "Vary your vocabulary to avoid repeating the same words.")
	add(st.AcademicWords < 3, "Incorporate more academic vocabulary to strengthen your tone.")
	add(!st.HasCounterargument && st.Words >= 300, "Address a counterargument to show you have considered other perspectives.")
	if len(out) == 0 {
		return []string{encouragement}
	}
	return dedupe(out)
}

// dedupe drops repeated strings, keeping first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func presence(ok bool) string { return pick(ok, "present", "missing") }

func percent(ratio float64) int { return int(math.Round(ratio * 100)) }

func scorePercent(total, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(float64(total) * 100 / float64(maxScore)))
}
