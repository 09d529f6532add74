package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

const sample = "Public libraries give every resident free access to books and computers. " +
	"They also host classes that help people learn new skills.\n\n" +
	"In conclusion, cities should keep funding them."

func TestRunFromStdin(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run([]string{"-offline", "-title", "Libraries"}, strings.NewReader(sample), &out, &errOut); err != nil {
		t.Fatalf("run: %v (stderr: %s)", err, errOut.String())
	}
	var res grading.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if res.Grade.MaxScore != 100 || !res.Source.IsFallback() {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunWithRubricFile(t *testing.T) {
	dir := t.TempDir()
	essayPath := filepath.Join(dir, "essay.txt")
	rubricPath := filepath.Join(dir, "rubric.json")
	if err := os.WriteFile(essayPath, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	rubric := `{"id":"short","name":"Short","criteria":{"grammar":{"weight":10},"structure":{"weight":30}},"max_score":40}`
	if err := os.WriteFile(rubricPath, []byte(rubric), 0o600); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if err := run([]string{"-offline", "-progress", "-rubric", rubricPath, essayPath}, nil, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	var res grading.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Grade.MaxScore != 40 || res.Grade.RubricID != "short" {
		t.Fatalf("rubric file not applied: %+v", res.Grade)
	}
	if !strings.Contains(errOut.String(), string(grading.StateComplete)) {
		t.Fatalf("progress not reported: %q", errOut.String())
	}
}

func TestRunRejectsShortEssay(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"-offline"}, strings.NewReader("too short"), &out, &errOut)
	if err == nil || !strings.Contains(err.Error(), grading.ErrInvalidInput.Error()) {
		t.Fatalf("want invalid input error, got %v", err)
	}
}
