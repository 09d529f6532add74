package grading_test

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"One. Two! Three?", []string{"One.", " Two!", " Three?"}},
		{`He said "stop." Then he left...`, []string{`He said "stop."`, " Then he left..."}},
		{"No terminator at all", []string{"No terminator at all"}},
		{"Trailing words. and more", []string{"Trailing words.", " and more"}},
		{"", nil},
	}
	for _, tc := range cases {
		got := grading.SplitSentences(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitSentences(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if joined := strings.Join(got, ""); joined != tc.in {
			t.Errorf("parts of %q rejoin to %q", tc.in, joined)
		}
	}
}

func TestSplitChunksPacksWholeSentences(t *testing.T) {
	text := "One two three. Four five six. Seven eight nine."
	got := grading.SplitChunks(text, 20)
	want := []grading.Chunk{
		{Index: 0, Text: "One two three.", Position: grading.PositionFirst},
		{Index: 1, Text: "Four five six.", Position: grading.PositionMiddle},
		{Index: 2, Text: "Seven eight nine.", Position: grading.PositionLast},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitChunks = %+v, want %+v", got, want)
	}

	if one := grading.SplitChunks(text, 1000); len(one) != 1 || one[0].Position != grading.PositionWhole {
		t.Fatalf("short text should be one whole chunk, got %+v", one)
	}
}

func TestSplitChunksOversizedSentence(t *testing.T) {
	long := strings.Repeat("x", 50) + "."
	got := grading.SplitChunks("Short one. "+long, 20)
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(got), got)
	}
	if got[1].Text != long {
		t.Fatalf("oversized sentence was altered: %q", got[1].Text)
	}
}

func TestSplitChunksPreservesContent(t *testing.T) {
	limit := 400
	chunks := grading.SplitChunks(wellStructuredEssay, limit)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	var words []string
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if n := utf8.RuneCountInString(c.Text); n > limit && len(grading.SplitSentences(c.Text)) > 1 {
			t.Errorf("chunk %d has %d runes over the limit", i, n)
		}
		words = append(words, strings.Fields(c.Text)...)
	}
	if !reflect.DeepEqual(words, strings.Fields(wellStructuredEssay)) {
		t.Fatalf("chunks do not cover the essay word for word")
	}
}
