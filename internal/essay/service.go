package essay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/auth"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/metrics"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/rbac"
	syncx "github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/sync"
)

const (
	defaultGradingTimeout = 60 * time.Second
	defaultStaleAfter     = 10 * time.Minute
)

// gradable are the statuses an AI or manual grading pass may start from.
var gradable = []Status{StatusSubmitted, StatusGraded, StatusReturned}

type Service struct {
	store   Store
	engine  *grading.Engine
	checker *rbac.Checker
	log     *logger.Logger
	metrics *metrics.Metrics
	events  syncx.Log
	now     func() time.Time
	newID   func() string

	gradingTimeout time.Duration
	staleAfter     time.Duration
}

type Option func(*Service)

func WithLogger(l *logger.Logger) Option        { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option     { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) Option     { return func(s *Service) { s.now = now } }
func WithChecker(c *rbac.Checker) Option        { return func(s *Service) { s.checker = c } }
func WithGradingTimeout(d time.Duration) Option { return func(s *Service) { s.gradingTimeout = d } }
func WithStaleAfter(d time.Duration) Option     { return func(s *Service) { s.staleAfter = d } }
func WithIDs(fn func() string) Option           { return func(s *Service) { s.newID = fn } }
func WithEvents(l syncx.Log) Option             { return func(s *Service) { s.events = l } }

func NewService(store Store, engine *grading.Engine, opts ...Option) *Service {
	s := &Service{
		store:          store,
		engine:         engine,
		checker:        rbac.Default,
		log:            logger.Nop(),
		now:            time.Now,
		newID:          uuid.NewString,
		gradingTimeout: defaultGradingTimeout,
		staleAfter:     defaultStaleAfter,
	}
	for _, o := range opts {
		o(s)
	}
	if s.engine == nil {
		s.engine = grading.NewEngine(grading.WithLogger(s.log))
	}
	if s.gradingTimeout <= 0 {
		s.gradingTimeout = defaultGradingTimeout
	}
	if s.staleAfter <= 0 {
		s.staleAfter = defaultStaleAfter
	}
	return s
}

func (s *Service) require(actor auth.Actor, perm string) error {
	if actor.ID == "" || !s.checker.Has(actor.Role, perm) {
		return fmt.Errorf("%w: %s requires %s", ErrForbidden, actor.Role, perm)
	}
	return nil
}

func (s *Service) canView(actor auth.Actor, e Essay) error {
	if s.checker.Has(actor.Role, rbac.PermEssayViewAll) {
		return nil
	}
	if actor.ID != "" && e.StudentID == actor.ID && s.checker.Has(actor.Role, rbac.PermEssayViewOwn) {
		return nil
	}
	return fmt.Errorf("%w: essay %s", ErrForbidden, e.ID)
}

func (s *Service) nowUTC() time.Time { return s.now().UTC() }

/* ---------------- essays ---------------- */

// SubmitEssay stores a new essay in the submitted state. Content is checked
// against the same bounds the engine enforces.
func (s *Service) SubmitEssay(ctx context.Context, actor auth.Actor, in NewEssay) (Essay, error) {
	if err := s.require(actor, rbac.PermEssaySubmit); err != nil {
		return Essay{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Essay{}, fmt.Errorf("%w: title required", grading.ErrInvalidInput)
	}
	if err := grading.ValidateContent(in.Content); err != nil {
		return Essay{}, err
	}
	if in.AssignmentID != "" {
		if _, err := s.store.GetAssignment(ctx, in.AssignmentID); err != nil {
			return Essay{}, err
		}
	}
	now := s.nowUTC()
	e := Essay{
		ID:              s.newID(),
		AssignmentID:    in.AssignmentID,
		StudentID:       actor.ID,
		Title:           title,
		Content:         in.Content,
		Status:          StatusSubmitted,
		SubmittedAt:     now,
		StatusChangedAt: now,
	}
	if err := s.store.CreateEssay(ctx, e); err != nil {
		return Essay{}, err
	}
	s.log.Info("essay submitted", "essay_id", e.ID, "student_id", e.StudentID, "assignment_id", e.AssignmentID)
	s.record(ctx, e.ID, syncx.TypeSubmitted, actor.ID, map[string]any{"assignment_id": e.AssignmentID})
	return e, nil
}

func (s *Service) GetEssay(ctx context.Context, actor auth.Actor, id string) (Essay, error) {
	e, err := s.store.GetEssay(ctx, id)
	if err != nil {
		return Essay{}, err
	}
	if err := s.canView(actor, e); err != nil {
		return Essay{}, err
	}
	return e, nil
}

// ListEssays lists every essay for staff and only the actor's own essays
// for students.
func (s *Service) ListEssays(ctx context.Context, actor auth.Actor, opts ListOpts) ([]Essay, error) {
	switch {
	case s.checker.Has(actor.Role, rbac.PermEssayViewAll):
	case s.checker.Has(actor.Role, rbac.PermEssayViewOwn) && actor.ID != "":
		opts.StudentID = actor.ID
	default:
		return nil, fmt.Errorf("%w: cannot list essays", ErrForbidden)
	}
	return s.store.ListEssays(ctx, opts)
}

// GetGrade returns nil, nil when the essay has not been graded. Students only
// see grades of essays that were returned to them.
func (s *Service) GetGrade(ctx context.Context, actor auth.Actor, essayID string) (*grading.Grade, error) {
	e, err := s.GetEssay(ctx, actor, essayID)
	if err != nil {
		return nil, err
	}
	if !s.checker.Has(actor.Role, rbac.PermEssayViewAll) && e.Status != StatusReturned {
		return nil, nil
	}
	return s.store.GetGrade(ctx, essayID)
}

// GradeEssay runs the AI engine over an essay: submitted|graded|returned ->
// grading -> graded. Any failure after the essay entered grading moves it
// back to submitted so it can be retried.
func (s *Service) GradeEssay(ctx context.Context, actor auth.Actor, essayID string) (grading.Result, error) {
	if err := s.require(actor, rbac.PermGradeAI); err != nil {
		return grading.Result{}, err
	}
	e, err := s.store.SetStatus(ctx, essayID, gradable, StatusGrading, s.nowUTC())
	if err != nil {
		return grading.Result{}, err
	}
	log := s.log.With("essay_id", essayID, "actor_id", actor.ID)
	log.Info("essay grading started")

	res, err := s.gradeLocked(ctx, e)
	if err == nil {
		_, err = s.store.SetStatus(ctx, essayID, []Status{StatusGrading}, StatusGraded, s.nowUTC())
	}
	if err != nil {
		s.metrics.GradingFailed(failureKind(err))
		s.revert(ctx, log, essayID, err)
		s.record(context.WithoutCancel(ctx), essayID, syncx.TypeGradingFailed, actor.ID, map[string]any{"kind": failureKind(err)})
		return grading.Result{}, err
	}
	s.record(ctx, essayID, syncx.TypeGraded, actor.ID, map[string]any{
		"total":  res.Grade.TotalScore,
		"max":    res.Grade.MaxScore,
		"source": res.Source,
		"chunks": res.Grade.ChunksProcessed,
	})
	log.Info("essay graded",
		"total", res.Grade.TotalScore,
		"max", res.Grade.MaxScore,
		"source", res.Source.Kind,
		"chunks", res.Grade.ChunksProcessed)
	return res, nil
}

// gradeLocked runs while the essay is in the grading state.
func (s *Service) gradeLocked(ctx context.Context, e Essay) (grading.Result, error) {
	rubric, assignmentContext, err := s.rubricFor(ctx, e.AssignmentID)
	if err != nil {
		return grading.Result{}, err
	}
	gctx, cancel := context.WithTimeout(ctx, s.gradingTimeout)
	defer cancel()

	start := s.now()
	res, err := s.engine.Grade(gctx, grading.Request{
		Content:           e.Content,
		Title:             e.Title,
		Rubric:            &rubric,
		AssignmentContext: assignmentContext,
	})
	if err != nil {
		return grading.Result{}, err
	}
	s.metrics.ObserveAIGrade(res, s.now().Sub(start))

	res.Grade.EssayID = e.ID
	if err := s.store.UpsertGrade(ctx, res.Grade); err != nil {
		return grading.Result{}, err
	}
	return res, nil
}

// revert puts an essay back to submitted. It runs detached from ctx so a
// cancelled request still leaves the essay retryable.
func (s *Service) revert(ctx context.Context, log *logger.Logger, essayID string, cause error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.store.SetStatus(rctx, essayID, []Status{StatusGrading}, StatusSubmitted, s.nowUTC()); err != nil {
		log.Error("essay revert failed", "cause", cause, "error", err)
		return
	}
	log.Warn("essay grading failed, reverted to submitted", "error", cause)
}

// ManualGrade stores a teacher's grade through the same clamping path as AI
// grades. The caller's total is ignored.
func (s *Service) ManualGrade(ctx context.Context, actor auth.Actor, essayID string, in grading.ManualGradeInput) (grading.Grade, error) {
	if err := s.require(actor, rbac.PermGradeManual); err != nil {
		return grading.Grade{}, err
	}
	if in.CriteriaScores == nil {
		return grading.Grade{}, fmt.Errorf("%w: criteria_scores required", grading.ErrInvalidInput)
	}
	e, err := s.store.GetEssay(ctx, essayID)
	if err != nil {
		return grading.Grade{}, err
	}
	if !statusIn(e.Status, gradable) {
		return grading.Grade{}, fmt.Errorf("%w: essay %s is %s", ErrInvalidTransition, essayID, e.Status)
	}
	rubric, _, err := s.rubricFor(ctx, e.AssignmentID)
	if err != nil {
		return grading.Grade{}, err
	}
	if err := rubric.Validate(); err != nil {
		return grading.Grade{}, err
	}

	g := grading.ManualGrade(rubric, in, actor.ID, s.now())
	g.EssayID = essayID
	if err := s.store.UpsertGrade(ctx, g); err != nil {
		return grading.Grade{}, err
	}
	if _, err := s.store.SetStatus(ctx, essayID, gradable, StatusGraded, s.nowUTC()); err != nil {
		return grading.Grade{}, err
	}
	s.metrics.ObserveManualGrade()
	s.record(ctx, essayID, syncx.TypeManualGrade, actor.ID, map[string]any{"total": g.TotalScore, "max": g.MaxScore})
	s.log.Info("essay graded manually", "essay_id", essayID, "teacher_id", actor.ID, "total", g.TotalScore)
	return g, nil
}

// ReturnEssay releases a graded essay to its student.
func (s *Service) ReturnEssay(ctx context.Context, actor auth.Actor, essayID string) (Essay, error) {
	if err := s.require(actor, rbac.PermEssayReturn); err != nil {
		return Essay{}, err
	}
	e, err := s.store.SetStatus(ctx, essayID, []Status{StatusGraded}, StatusReturned, s.nowUTC())
	if err != nil {
		return Essay{}, err
	}
	s.log.Info("essay returned", "essay_id", essayID, "actor_id", actor.ID)
	s.record(ctx, essayID, syncx.TypeReturned, actor.ID, nil)
	return e, nil
}

// RevertStaleGrading moves essays stuck in grading for longer than the stale
// window back to submitted.
func (s *Service) RevertStaleGrading(ctx context.Context) (int, error) {
	now := s.nowUTC()
	n, err := s.store.RevertStaleGrading(ctx, now.Add(-s.staleAfter), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.record(ctx, "", syncx.TypeStaleReverted, "", map[string]any{"essays": n})
		s.metrics.StaleReverted(n)
		s.log.Warn("stale grading reverted", "essays", n, "older_than", s.staleAfter.String())
	}
	return n, nil
}

// ListEvents returns the lifecycle history of an essay, oldest first.
func (s *Service) ListEvents(ctx context.Context, actor auth.Actor, essayID string, after int64) ([]syncx.Event, error) {
	if err := s.require(actor, rbac.PermEssayViewAll); err != nil {
		return nil, err
	}
	if s.events == nil {
		return []syncx.Event{}, nil
	}
	if _, err := s.store.GetEssay(ctx, essayID); err != nil {
		return nil, err
	}
	return s.events.List(ctx, essayID, after, 0)
}

// record appends to the event log. Failures are logged and never fail the
// operation that produced the event.
func (s *Service) record(ctx context.Context, essayID, typ, actorID string, data map[string]any) {
	if s.events == nil {
		return
	}
	var raw string
	if len(data) > 0 {
		if b, err := json.Marshal(data); err == nil {
			raw = string(b)
		}
	}
	err := s.events.Append(ctx, syncx.Event{
		EssayID:   essayID,
		Type:      typ,
		ActorID:   actorID,
		DataJSON:  raw,
		CreatedAt: s.nowUTC(),
	})
	if err != nil {
		s.log.Warn("event append failed", "essay_id", essayID, "type", typ, "error", err)
	}
}

/* ---------------- rubrics & assignments ---------------- */

// rubricFor resolves the rubric and assignment context of an essay. Essays
// without an assignment, or whose assignment has no rubric, use the default.
func (s *Service) rubricFor(ctx context.Context, assignmentID string) (grading.Rubric, string, error) {
	if assignmentID == "" {
		return grading.DefaultRubric(), "", nil
	}
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return grading.Rubric{}, "", err
	}
	assignmentContext := strings.TrimSpace(a.Title + "\n" + a.Description)
	if a.RubricID == "" || a.RubricID == grading.DefaultRubricID {
		return grading.DefaultRubric(), assignmentContext, nil
	}
	r, err := s.store.GetRubric(ctx, a.RubricID)
	if err != nil {
		return grading.Rubric{}, "", err
	}
	return r, assignmentContext, nil
}

// SaveRubric creates or replaces a rubric. Inconsistent rubrics are rejected
// here so stored rubrics always satisfy max_score == sum of weights.
func (s *Service) SaveRubric(ctx context.Context, actor auth.Actor, r grading.Rubric) (grading.Rubric, error) {
	if err := s.require(actor, rbac.PermRubricEdit); err != nil {
		return grading.Rubric{}, err
	}
	if r.ID == grading.DefaultRubricID {
		return grading.Rubric{}, fmt.Errorf("%w: rubric id %q is reserved", grading.ErrInvalidInput, r.ID)
	}
	if err := r.Validate(); err != nil {
		return grading.Rubric{}, err
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	if err := s.store.PutRubric(ctx, r); err != nil {
		return grading.Rubric{}, err
	}
	s.log.Info("rubric saved", "rubric_id", r.ID, "criteria", len(r.Criteria), "max_score", r.MaxScore)
	return r, nil
}

func (s *Service) GetRubric(ctx context.Context, actor auth.Actor, id string) (grading.Rubric, error) {
	if err := s.require(actor, rbac.PermRubricView); err != nil {
		return grading.Rubric{}, err
	}
	if id == grading.DefaultRubricID {
		return grading.DefaultRubric(), nil
	}
	return s.store.GetRubric(ctx, id)
}

// ListRubrics always starts with the built-in default rubric.
func (s *Service) ListRubrics(ctx context.Context, actor auth.Actor) ([]grading.Rubric, error) {
	if err := s.require(actor, rbac.PermRubricView); err != nil {
		return nil, err
	}
	stored, err := s.store.ListRubrics(ctx)
	if err != nil {
		return nil, err
	}
	return append([]grading.Rubric{grading.DefaultRubric()}, stored...), nil
}

func (s *Service) DeleteRubric(ctx context.Context, actor auth.Actor, id string) error {
	if err := s.require(actor, rbac.PermRubricEdit); err != nil {
		return err
	}
	if id == grading.DefaultRubricID {
		return fmt.Errorf("%w: the default rubric cannot be deleted", grading.ErrInvalidInput)
	}
	return s.store.DeleteRubric(ctx, id)
}

func (s *Service) SaveAssignment(ctx context.Context, actor auth.Actor, a Assignment) (Assignment, error) {
	if err := s.require(actor, rbac.PermAssignmentEdit); err != nil {
		return Assignment{}, err
	}
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return Assignment{}, fmt.Errorf("%w: title required", grading.ErrInvalidInput)
	}
	if a.RubricID != "" && a.RubricID != grading.DefaultRubricID {
		if _, err := s.store.GetRubric(ctx, a.RubricID); err != nil {
			return Assignment{}, err
		}
	}
	if a.ID == "" {
		a.ID = s.newID()
		a.CreatedAt = s.nowUTC()
	} else if prev, err := s.store.GetAssignment(ctx, a.ID); err == nil {
		a.CreatedAt = prev.CreatedAt
	} else if errors.Is(err, ErrNotFound) {
		a.CreatedAt = s.nowUTC()
	} else {
		return Assignment{}, err
	}
	a.TeacherID = actor.ID
	if err := s.store.PutAssignment(ctx, a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *Service) GetAssignment(ctx context.Context, actor auth.Actor, id string) (Assignment, error) {
	if err := s.require(actor, rbac.PermAssignmentView); err != nil {
		return Assignment{}, err
	}
	return s.store.GetAssignment(ctx, id)
}

// PreviewGrade runs the engine without touching any essay. A stored rubric
// may be referenced by id when req carries none.
func (s *Service) PreviewGrade(ctx context.Context, actor auth.Actor, req grading.Request, rubricID string) (grading.Result, error) {
	if err := s.require(actor, rbac.PermGradePreview); err != nil {
		return grading.Result{}, err
	}
	if req.Rubric == nil && rubricID != "" && rubricID != grading.DefaultRubricID {
		r, err := s.store.GetRubric(ctx, rubricID)
		if err != nil {
			return grading.Result{}, err
		}
		req.Rubric = &r
	}
	gctx, cancel := context.WithTimeout(ctx, s.gradingTimeout)
	defer cancel()
	return s.engine.Grade(gctx, req)
}

// failureKind labels an error for the failure counter.
func failureKind(err error) string {
	switch {
	case errors.Is(err, grading.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, grading.ErrRubricInconsistent):
		return "rubric_inconsistent"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}
