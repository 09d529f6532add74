package grading

import (
	"strings"
	"unicode"
)

// cleanWord lowercases a whitespace token and trims surrounding punctuation.
// Inner apostrophes and hyphens survive ("today's", "well-known").
func cleanWord(tok string) string {
	return strings.TrimFunc(strings.ToLower(tok), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// cleanWords tokenizes on whitespace and drops tokens that are pure punctuation.
func cleanWords(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := cleanWord(f); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// countPhrases counts every occurrence of every phrase in words. Each phrase
// is matched as a run of consecutive cleaned words.
func countPhrases(words []string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		n += countPhrase(words, strings.Fields(p))
	}
	return n
}

func containsAnyPhrase(words []string, phrases []string) bool {
	for _, p := range phrases {
		if countPhrase(words, strings.Fields(p)) > 0 {
			return true
		}
	}
	return false
}

func countPhrase(words, phrase []string) int {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return 0
	}
	n := 0
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

func countInSet(words []string, set map[string]struct{}) int {
	n := 0
	for _, w := range words {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}

// headRunes and tailRunes cut on rune boundaries so multi-byte text never splits.
func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func firstLetter(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return r, true
		}
	}
	return 0, false
}
