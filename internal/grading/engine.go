package grading

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
)

const (
	MinContentLength      = 50
	MaxContentLength      = 100000
	DefaultChunkThreshold = 3000
)

// ExternalGrader is the optional AI service. It receives a complete prompt
// and returns the raw reply text; the engine owns parsing and fallback.
type ExternalGrader interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// State is a step of one grading invocation.
type State string

const (
	StateNotStarted State = "not_started"
	StateValidating State = "validating"
	StateSinglePass State = "single_pass"
	StateChunking   State = "chunking"
	StateMerging    State = "merging"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// Progress is emitted on every state change and after each chunk finishes.
type Progress struct {
	State  State `json:"state"`
	Chunk  int   `json:"chunk,omitempty"`
	Chunks int   `json:"chunks,omitempty"`
	Err    error `json:"-"`
}

// Engine options

type Option func(*config)

type config struct {
	External       ExternalGrader
	Log            *logger.Logger
	ChunkThreshold int
	Concurrency    int
	Progress       func(Progress)
	Now            func() time.Time
}

func WithExternal(g ExternalGrader) Option  { return func(c *config) { c.External = g } }
func WithLogger(l *logger.Logger) Option    { return func(c *config) { c.Log = l } }
func WithChunkThreshold(n int) Option       { return func(c *config) { c.ChunkThreshold = n } }
func WithConcurrency(n int) Option          { return func(c *config) { c.Concurrency = n } }
func WithProgress(fn func(Progress)) Option { return func(c *config) { c.Progress = fn } }
func WithClock(now func() time.Time) Option { return func(c *config) { c.Now = now } }

// Engine grades essays. It holds no per-invocation state and is safe for
// concurrent use.
type Engine struct {
	cfg config
}

func NewEngine(opts ...Option) *Engine {
	cfg := config{
		ChunkThreshold: DefaultChunkThreshold,
		Concurrency:    1,
		Now:            time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.ChunkThreshold <= 0 {
		cfg.ChunkThreshold = DefaultChunkThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg}
}

// ChunkThreshold reports the size above which essays are graded in parts.
func (e *Engine) ChunkThreshold() int { return e.cfg.ChunkThreshold }

// ValidateContent applies the length bounds to trimmed content, in runes.
func ValidateContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}
	n := utf8.RuneCountInString(trimmed)
	if n < MinContentLength {
		return fmt.Errorf("%w: content has %d characters, minimum is %d", ErrInvalidInput, n, MinContentLength)
	}
	if n > MaxContentLength {
		return fmt.Errorf("%w: content has %d characters, maximum is %d", ErrInvalidInput, n, MaxContentLength)
	}
	return nil
}

// chunkResult is the outcome of one pipeline pass over one chunk.
type chunkResult struct {
	Chunk       Chunk
	Scores      map[string]int
	Total       int
	Feedback    string
	Detailed    map[string]string
	Suggestions []string
	Source      Source
}

// Grade runs one grading invocation. It fails only with ErrInvalidInput,
// ErrRubricInconsistent or a context error; external grader and per-chunk
// failures are recovered by the heuristic path and reported in Result.Source.
func (e *Engine) Grade(ctx context.Context, req Request) (Result, error) {
	run := &invocation{engine: e}
	res, err := run.grade(ctx, req)
	if err != nil {
		run.emit(Progress{State: StateFailed, Err: err})
		return Result{}, err
	}
	run.emit(Progress{State: StateComplete, Chunks: max(res.Grade.ChunksProcessed, 1)})
	return res, nil
}

type invocation struct {
	engine *Engine
	mu     sync.Mutex
}

func (iv *invocation) emit(p Progress) {
	fn := iv.engine.cfg.Progress
	if fn == nil {
		return
	}
	iv.mu.Lock()
	defer iv.mu.Unlock()
	fn(p)
}

func (iv *invocation) grade(ctx context.Context, req Request) (Result, error) {
	iv.emit(Progress{State: StateValidating})
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := ValidateContent(req.Content); err != nil {
		return Result{}, err
	}
	rubric := DefaultRubric()
	if req.Rubric != nil {
		rubric = *req.Rubric
	}
	rubric, err := rubric.forGrading()
	if err != nil {
		return Result{}, err
	}
	if req.Rubric != nil && rubric.MaxScore != req.Rubric.MaxScore {
		iv.engine.cfg.Log.Warn("rubric max_score does not match weights; using weight sum",
			"rubric_id", rubric.ID, "max_score", req.Rubric.MaxScore, "weight_sum", rubric.MaxScore)
	}

	content := strings.TrimSpace(req.Content)
	var chunks []Chunk
	if utf8.RuneCountInString(content) > iv.engine.cfg.ChunkThreshold {
		chunks = SplitChunks(content, iv.engine.cfg.ChunkThreshold)
	}

	var grade Grade
	var src Source
	if len(chunks) <= 1 {
		// a single oversized sentence is still one pass
		iv.emit(Progress{State: StateSinglePass, Chunk: 1, Chunks: 1})
		r := iv.engine.gradeChunk(ctx, rubric, req, Chunk{Text: content, Position: PositionWhole}, 1)
		grade = r.asGrade()
		src = r.Source
	} else {
		iv.emit(Progress{State: StateChunking, Chunks: len(chunks)})
		results, err := iv.gradeChunks(ctx, rubric, req, chunks)
		if err != nil {
			return Result{}, err
		}
		iv.emit(Progress{State: StateMerging, Chunks: len(chunks)})
		grade = mergeChunks(rubric, results)
		src = combineSources(results)
	}

	grade.MaxScore = rubric.MaxScore
	grade.RubricID = rubric.ID
	grade.GradedBy = GradedByAI
	grade.GradedAt = iv.engine.cfg.Now().UTC()
	return Result{Grade: grade, Source: src}, nil
}

// gradeChunks fans chunk passes out over at most Concurrency goroutines.
// Results are stored by chunk index so merging always follows document order.
func (iv *invocation) gradeChunks(ctx context.Context, r Rubric, req Request, chunks []Chunk) ([]chunkResult, error) {
	results := make([]chunkResult, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(iv.engine.cfg.Concurrency)
	var done int
	var doneMu sync.Mutex
	for i := range chunks {
		ch := chunks[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[ch.Index] = iv.engine.gradeChunk(gctx, r, req, ch, len(chunks))
			doneMu.Lock()
			done++
			n := done
			doneMu.Unlock()
			iv.emit(Progress{State: StateChunking, Chunk: n, Chunks: len(chunks)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// gradeChunk runs the full pipeline over one chunk. The external grader is
// tried first when configured; any failure falls back to the heuristic path
// for this chunk only.
func (e *Engine) gradeChunk(ctx context.Context, r Rubric, req Request, ch Chunk, total int) chunkResult {
	st := Analyze(ch.Text)
	if e.cfg.External == nil {
		return heuristicResult(req.Title, st, r, ch, Fallback("external grader not configured"))
	}

	ext, err := e.tryExternal(ctx, r, req, ch, total)
	if err == nil {
		for key := range r.Criteria {
			if _, ok := ext.Detailed[key]; !ok {
				ext.Detailed[key] = criterionFeedback(key, ext.Scores[key], r.Criteria[key].Weight, st)
			}
		}
		if len(ext.Suggestions) == 0 {
			ext.Suggestions = Suggestions(st)
		}
		return chunkResult{
			Chunk:       ch,
			Scores:      ext.Scores,
			Total:       ext.Total,
			Feedback:    ext.Feedback,
			Detailed:    ext.Detailed,
			Suggestions: ext.Suggestions,
			Source:      External(),
		}
	}

	if total > 1 {
		err = fmt.Errorf("%w: part %d: %w", ErrChunkGrading, ch.Index+1, err)
	}
	e.cfg.Log.Warn("external grading failed, using heuristic scorer",
		"chunk", ch.Index+1, "chunks", total, "error", err)
	return heuristicResult(req.Title, st, r, ch, Fallback(err.Error()))
}

func (e *Engine) tryExternal(ctx context.Context, r Rubric, req Request, ch Chunk, total int) (ExternalGrade, error) {
	raw, err := e.cfg.External.Complete(ctx, buildPrompt(r, req, ch, total))
	if err != nil {
		return ExternalGrade{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return ParseExternalResponse(raw, r)
}

func heuristicResult(title string, st Stats, r Rubric, ch Chunk, src Source) chunkResult {
	scores, total := ApplyRubric(r, ScoreCriteria(st, r))
	return chunkResult{
		Chunk:       ch,
		Scores:      scores,
		Total:       total,
		Feedback:    Summary(title, st, r, scores, total, ch.Position),
		Detailed:    DetailedFeedback(st, r, scores),
		Suggestions: Suggestions(st),
		Source:      src,
	}
}

func (c chunkResult) asGrade() Grade {
	return Grade{
		TotalScore:       c.Total,
		CriteriaScores:   c.Scores,
		Feedback:         c.Feedback,
		DetailedFeedback: c.Detailed,
		Suggestions:      c.Suggestions,
	}
}

// combineSources reports external only when every chunk was graded externally.
func combineSources(results []chunkResult) Source {
	var reasons []string
	for _, r := range results {
		if r.Source.IsFallback() && !containsString(reasons, r.Source.Reason) {
			reasons = append(reasons, r.Source.Reason)
		}
	}
	if len(reasons) == 0 {
		return External()
	}
	return Fallback(strings.Join(reasons, "; "))
}
