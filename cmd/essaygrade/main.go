// Command essaygrade grades one essay from a file or stdin and prints the
// result as JSON. It uses the same engine and environment as essayd.
//
//	essaygrade [-title T] [-rubric rubric.json] [-progress] [essay.txt]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/config"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading/llm"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "essaygrade:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("essaygrade", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "essay title")
	rubricPath := fs.String("rubric", "", "rubric JSON file (default: built-in rubric)")
	assignment := fs.String("context", "", "assignment prompt given to the external grader")
	progress := fs.Bool("progress", false, "print grading progress to stderr")
	offline := fs.Bool("offline", false, "never call the external grader")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	content, err := readEssay(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	req := grading.Request{Content: content, Title: *title, AssignmentContext: *assignment}
	if *rubricPath != "" {
		r, err := readRubric(*rubricPath)
		if err != nil {
			return err
		}
		req.Rubric = &r
	}

	opts := append(cfg.GradingOptions(), grading.WithLogger(log))
	if !*offline && cfg.ExternalGraderEnabled() {
		client, err := llm.New(cfg.LLM(), log)
		if err != nil {
			return err
		}
		opts = append(opts, grading.WithExternal(client))
	}
	if *progress {
		opts = append(opts, grading.WithProgress(func(p grading.Progress) {
			if p.Chunks > 0 {
				fmt.Fprintf(stderr, "%s %d/%d\n", p.State, p.Chunk, p.Chunks)
				return
			}
			fmt.Fprintln(stderr, p.State)
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.GradingTimeout)
	defer cancel()

	res, err := grading.NewEngine(opts...).Grade(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func readEssay(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(io.LimitReader(stdin, 4*grading.MaxContentLength+1))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readRubric(path string) (grading.Rubric, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return grading.Rubric{}, err
	}
	var r grading.Rubric
	if err := json.Unmarshal(b, &r); err != nil {
		return grading.Rubric{}, fmt.Errorf("rubric %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return grading.Rubric{}, err
	}
	return r, nil
}
