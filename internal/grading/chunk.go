package grading

import (
	"strings"
	"unicode/utf8"
)

// Position tells a chunk pass where its text sits in the essay.
type Position string

const (
	PositionWhole  Position = "whole"
	PositionFirst  Position = "first"
	PositionMiddle Position = "middle"
	PositionLast   Position = "last"
)

type Chunk struct {
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	Position Position `json:"position"`
}

// SplitSentences cuts text after every run of sentence terminators (plus any
// closing quotes or brackets that follow). Whitespace stays attached to the
// start of the next sentence, so joining the parts reproduces text exactly.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isTerminator(r) {
			continue
		}
		for i < len(text) {
			next, n := utf8.DecodeRuneInString(text[i:])
			if !isTerminator(next) && !isCloser(next) {
				break
			}
			i += n
		}
		out = append(out, text[start:i])
		start = i
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// SplitChunks packs whole sentences into chunks of at most limit runes. A
// sentence is never split: one longer than limit becomes a chunk of its own.
func SplitChunks(text string, limit int) []Chunk {
	if limit <= 0 {
		limit = DefaultChunkThreshold
	}
	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		curLen = 0
	}
	for _, s := range SplitSentences(text) {
		n := utf8.RuneCountInString(s)
		if curLen > 0 && curLen+n > limit {
			flush()
		}
		cur.WriteString(s)
		curLen += n
	}
	flush()

	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{Index: i, Text: p, Position: positionOf(i, len(parts))}
	}
	return chunks
}

func positionOf(i, n int) Position {
	switch {
	case n == 1:
		return PositionWhole
	case i == 0:
		return PositionFirst
	case i == n-1:
		return PositionLast
	default:
		return PositionMiddle
	}
}

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}
