package grading

import "math"

// minDiversityWords is the word count below which vocabulary diversity earns no
// bonus.
const minDiversityWords = 100

// heuristicScores holds the raw 0..20 score of every default criterion.
type heuristicScores map[string]int

// scoreHeuristics applies the fixed rule table to st. Each score is clamped
// to [0, 20] independently.
func scoreHeuristics(st Stats) heuristicScores {
	return heuristicScores{
		CriterionGrammar:         clamp(scoreGrammar(st), 0, heuristicScale),
		CriterionCohesion:        clamp(scoreCohesion(st), 0, heuristicScale),
		CriterionSentenceVariety: clamp(scoreSentenceVariety(st), 0, heuristicScale),
		CriterionTone:            clamp(scoreTone(st), 0, heuristicScale),
		CriterionStructure:       clamp(scoreStructure(st), 0, heuristicScale),
	}
}

func scoreGrammar(st Stats) int {
	s := 12
	if st.HasCapitalization {
		s += 2
	}
	if st.HasEndPunctuation {
		s += 2
	}
	if st.HasCommas {
		s++
	}
	if st.HasQuotations {
		s++
	}
	s -= min(2*st.SpellingErrors, 6)
	if st.Words >= 300 {
		s += 2
	}
	return s
}

func scoreCohesion(st Stats) int {
	s := 10
	if st.HasIntroduction {
		s += 3
	}
	if st.HasConclusion {
		s += 3
	}
	switch {
	case st.Transitions >= 3:
		s += 4
	case st.Transitions >= 1:
		s += 2
	}
	switch {
	case st.Paragraphs >= 4:
		s += 2
	case st.Paragraphs >= 3:
		s++
	}
	if st.LogicalConnectors >= 3 {
		s++
	}
	return s
}

func scoreSentenceVariety(st Stats) int {
	s := 8
	avg := st.AvgWordsPerSentence
	switch {
	case avg >= 15 && avg <= 25:
		s += 6
	case avg >= 12 && avg <= 30:
		s += 4
	case avg >= 8 && avg <= 35:
		s += 2
	}
	if st.Sentences >= 10 {
		s += 2
	}
	if st.Words >= minDiversityWords && st.VocabularyDiversity > 0.6 {
		s += 2
	}
	if st.ComplexWords >= 5 {
		s += 2
	}
	return s
}

func scoreTone(st Stats) int {
	s := 12
	switch {
	case st.Words >= 500:
		s += 4
	case st.Words >= 300:
		s += 2
	case st.Words >= 200:
		s++
	}
	if st.Words >= minDiversityWords && st.VocabularyDiversity > 0.7 {
		s += 2
	}
	if st.HasEvidence {
		s += 2
	}
	if st.AcademicWords >= 3 {
		s += 2
	}
	return s
}

func scoreStructure(st Stats) int {
	s := 8
	switch {
	case st.HasIntroduction && st.HasConclusion:
		s += 6
	case st.HasIntroduction || st.HasConclusion:
		s += 3
	}
	if st.HasThesis {
		s += 3
	}
	if st.HasEvidence {
		s += 2
	}
	if st.HasCounterargument {
		s++
	}
	return s
}

// ScoreCriteria maps st onto every criterion of r. Default criteria (and
// their aliases) use their own rule; custom criteria use the mean of the five
// rules. Raw 0..20 scores are rescaled to each weight and clamped to [0, weight].
func ScoreCriteria(st Stats, r Rubric) map[string]int {
	raw := scoreHeuristics(st)
	out := make(map[string]int, len(r.Criteria))
	for key, c := range r.Criteria {
		v, ok := raw[canonicalKey(key)]
		if !ok {
			v = raw.mean()
		}
		out[key] = clamp(rescale(v, c.Weight), 0, c.Weight)
	}
	return out
}

func (h heuristicScores) mean() int {
	sum := 0
	for _, k := range defaultOrder {
		sum += h[k]
	}
	return int(math.Round(float64(sum) / float64(len(defaultOrder))))
}

func rescale(v, weight int) int {
	if weight == heuristicScale {
		return v
	}
	return int(math.Round(float64(v) * float64(weight) / heuristicScale))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
