package essay_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/auth"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/essay"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	syncx "github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/sync"
)

var (
	student  = auth.Actor{ID: "s1", Username: "sam", Role: auth.RoleStudent}
	student2 = auth.Actor{ID: "s2", Username: "sue", Role: auth.RoleStudent}
	teacher  = auth.Actor{ID: "t1", Username: "tess", Role: auth.RoleTeacher}
)

const essayText = "Public libraries give every resident free access to books and computers. " +
	"They also host classes that help people learn new skills.\n\n" +
	"In conclusion, cities should keep funding them."

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc   *essay.Service
	store essay.Store
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...essay.Option) fixture {
	t.Helper()
	clock := &fakeClock{now: t0}
	store := essay.NewMemoryStore()
	var n int
	var mu sync.Mutex
	nextID := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	opts = append([]essay.Option{essay.WithClock(clock.Now), essay.WithIDs(nextID)}, opts...)
	return fixture{
		svc:   essay.NewService(store, grading.NewEngine(grading.WithClock(clock.Now)), opts...),
		store: store,
		clock: clock,
	}
}

func (f fixture) submit(t *testing.T, assignmentID string) essay.Essay {
	t.Helper()
	e, err := f.svc.SubmitEssay(context.Background(), student, essay.NewEssay{
		AssignmentID: assignmentID,
		Title:        "Libraries",
		Content:      essayText,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return e
}

func TestSubmitEssay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.submit(t, "")
	if e.Status != essay.StatusSubmitted || e.StudentID != "s1" || !e.SubmittedAt.Equal(t0) {
		t.Fatalf("unexpected essay: %+v", e)
	}

	cases := []struct {
		name  string
		actor auth.Actor
		in    essay.NewEssay
		want  error
	}{
		{"teacher cannot submit", teacher, essay.NewEssay{Title: "x", Content: essayText}, essay.ErrForbidden},
		{"missing title", student, essay.NewEssay{Content: essayText}, grading.ErrInvalidInput},
		{"too short", student, essay.NewEssay{Title: "x", Content: "Too short."}, grading.ErrInvalidInput},
		{"unknown assignment", student, essay.NewEssay{AssignmentID: "nope", Title: "x", Content: essayText}, essay.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.SubmitEssay(ctx, tc.actor, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEssayVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.submit(t, "")

	if _, err := f.svc.GetEssay(ctx, student, e.ID); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := f.svc.GetEssay(ctx, teacher, e.ID); err != nil {
		t.Fatalf("teacher: %v", err)
	}
	if _, err := f.svc.GetEssay(ctx, student2, e.ID); !errors.Is(err, essay.ErrForbidden) {
		t.Fatalf("other student: want ErrForbidden, got %v", err)
	}

	list, err := f.svc.ListEssays(ctx, student2, essay.ListOpts{StudentID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("student filter must be forced to self, got %d essays", len(list))
	}
	list, _ = f.svc.ListEssays(ctx, teacher, essay.ListOpts{})
	if len(list) != 1 {
		t.Fatalf("teacher should see 1 essay, got %d", len(list))
	}
}

func TestGradeEssayLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.submit(t, "")

	if _, err := f.svc.GradeEssay(ctx, student, e.ID); !errors.Is(err, essay.ErrForbidden) {
		t.Fatalf("student grading: want ErrForbidden, got %v", err)
	}

	res, err := f.svc.GradeEssay(ctx, teacher, e.ID)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Grade.EssayID != e.ID || res.Grade.MaxScore != 100 || res.Grade.GradedBy != grading.GradedByAI {
		t.Fatalf("unexpected grade: %+v", res.Grade)
	}
	if !res.Source.IsFallback() {
		t.Fatalf("no external grader configured, want fallback source, got %+v", res.Source)
	}

	got, _ := f.store.GetEssay(ctx, e.ID)
	if got.Status != essay.StatusGraded {
		t.Fatalf("want graded, got %s", got.Status)
	}

	// students only see the grade once it is returned
	if g, err := f.svc.GetGrade(ctx, student, e.ID); err != nil || g != nil {
		t.Fatalf("grade visible before return: %+v %v", g, err)
	}
	if _, err := f.svc.ReturnEssay(ctx, teacher, e.ID); err != nil {
		t.Fatalf("return: %v", err)
	}
	g, err := f.svc.GetGrade(ctx, student, e.ID)
	if err != nil || g == nil {
		t.Fatalf("grade after return: %+v %v", g, err)
	}
	if g.TotalScore != res.Grade.TotalScore {
		t.Fatalf("stored total %d, graded %d", g.TotalScore, res.Grade.TotalScore)
	}

	if _, err := f.svc.ReturnEssay(ctx, teacher, e.ID); !errors.Is(err, essay.ErrInvalidTransition) {
		t.Fatalf("second return: want ErrInvalidTransition, got %v", err)
	}

	// returned essays may be regraded
	if _, err := f.svc.GradeEssay(ctx, teacher, e.ID); err != nil {
		t.Fatalf("regrade: %v", err)
	}
}

func TestGradeEssayRejectsConcurrentRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.submit(t, "")
	if _, err := f.store.SetStatus(ctx, e.ID, []essay.Status{essay.StatusSubmitted}, essay.StatusGrading, t0); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GradeEssay(ctx, teacher, e.ID); !errors.Is(err, essay.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestGradeEssayRevertsOnFailure(t *testing.T) {
	events := syncx.NewMemoryLog()
	f := newFixture(t, essay.WithEvents(events))
	ctx := context.Background()

	r, err := f.svc.SaveRubric(ctx, teacher, grading.Rubric{
		Name:     "Short",
		Criteria: map[string]grading.Criterion{"grammar": {Weight: 20}, "structure": {Weight: 20}},
		MaxScore: 40,
	})
	if err != nil {
		t.Fatalf("save rubric: %v", err)
	}
	a, err := f.svc.SaveAssignment(ctx, teacher, essay.Assignment{Title: "Libraries", RubricID: r.ID})
	if err != nil {
		t.Fatalf("save assignment: %v", err)
	}
	e := f.submit(t, a.ID)

	// the rubric disappears between submission and grading
	if err := f.svc.DeleteRubric(ctx, teacher, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GradeEssay(ctx, teacher, e.ID); !errors.Is(err, essay.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	got, _ := f.store.GetEssay(ctx, e.ID)
	if got.Status != essay.StatusSubmitted {
		t.Fatalf("want revert to submitted, got %s", got.Status)
	}
	if g, _ := f.store.GetGrade(ctx, e.ID); g != nil {
		t.Fatalf("no grade should be stored, got %+v", g)
	}

	history, err := f.svc.ListEvents(ctx, teacher, e.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[1].Type != syncx.TypeGradingFailed || history[1].DataJSON != `{"kind":"not_found"}` {
		t.Fatalf("unexpected history: %+v", history)
	}
	if _, err := f.svc.ListEvents(ctx, student, e.ID, 0); !errors.Is(err, essay.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestGradeEssayCancelled(t *testing.T) {
	f := newFixture(t)
	e := f.submit(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.GradeEssay(ctx, teacher, e.ID); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	got, _ := f.store.GetEssay(context.Background(), e.ID)
	if got.Status != essay.StatusSubmitted {
		t.Fatalf("cancelled run must leave essay submitted, got %s", got.Status)
	}
}

func TestGradeEssayUsesAssignmentRubric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.svc.SaveRubric(ctx, teacher, grading.Rubric{
		Name:     "Short",
		Criteria: map[string]grading.Criterion{"grammar": {Weight: 10}, "structure": {Weight: 30}},
		MaxScore: 40,
	})
	if err != nil {
		t.Fatal(err)
	}
	a, err := f.svc.SaveAssignment(ctx, teacher, essay.Assignment{Title: "Libraries", RubricID: r.ID})
	if err != nil {
		t.Fatal(err)
	}
	if a.TeacherID != "t1" || !a.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected assignment: %+v", a)
	}
	e := f.submit(t, a.ID)

	res, err := f.svc.GradeEssay(ctx, teacher, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Grade.MaxScore != 40 || res.Grade.RubricID != r.ID || len(res.Grade.CriteriaScores) != 2 {
		t.Fatalf("assignment rubric not used: %+v", res.Grade)
	}
	if res.Grade.TotalScore > 40 {
		t.Fatalf("total %d exceeds max", res.Grade.TotalScore)
	}
}

func TestManualGrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.submit(t, "")

	bogus := 999
	in := grading.ManualGradeInput{
		CriteriaScores: map[string]int{
			"grammar":          18,
			"cohesion":         25, // clamped to 20
			"sentence_variety": -3, // clamped to 0
			"tone":             15,
		},
		TotalScore: &bogus,
		Feedback:   "Good start.",
	}
	if _, err := f.svc.ManualGrade(ctx, student, e.ID, in); !errors.Is(err, essay.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	g, err := f.svc.ManualGrade(ctx, teacher, e.ID, in)
	if err != nil {
		t.Fatalf("manual grade: %v", err)
	}
	if g.TotalScore != 53 {
		t.Fatalf("want total 53, got %d", g.TotalScore)
	}
	if g.GradedBy != grading.GradedByTeacher || g.TeacherID != "t1" || g.CriteriaScores["structure"] != 0 {
		t.Fatalf("unexpected grade: %+v", g)
	}
	got, _ := f.store.GetEssay(ctx, e.ID)
	if got.Status != essay.StatusGraded {
		t.Fatalf("want graded, got %s", got.Status)
	}

	if _, err := f.svc.ManualGrade(ctx, teacher, e.ID, grading.ManualGradeInput{}); !errors.Is(err, grading.ErrInvalidInput) {
		t.Fatalf("missing scores: want ErrInvalidInput, got %v", err)
	}
}

func TestRubricAdministration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveRubric(ctx, teacher, grading.Rubric{
		Name:     "Broken",
		Criteria: map[string]grading.Criterion{"grammar": {Weight: 10}},
		MaxScore: 50,
	})
	if !errors.Is(err, grading.ErrRubricInconsistent) {
		t.Fatalf("want ErrRubricInconsistent, got %v", err)
	}
	if _, err := f.svc.SaveRubric(ctx, teacher, grading.DefaultRubric()); !errors.Is(err, grading.ErrInvalidInput) {
		t.Fatalf("default id is reserved, got %v", err)
	}
	if _, err := f.svc.SaveRubric(ctx, student, grading.DefaultRubric()); !errors.Is(err, essay.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}

	list, err := f.svc.ListRubrics(ctx, student)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != grading.DefaultRubricID {
		t.Fatalf("want only the default rubric, got %+v", list)
	}
	if err := f.svc.DeleteRubric(ctx, teacher, grading.DefaultRubricID); !errors.Is(err, grading.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	r, err := f.svc.GetRubric(ctx, student, grading.DefaultRubricID)
	if err != nil || r.MaxScore != 100 {
		t.Fatalf("default rubric: %+v %v", r, err)
	}
}

func TestPreviewGrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.PreviewGrade(ctx, student, grading.Request{Title: "Libraries", Content: essayText}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Grade.MaxScore != 100 || res.Grade.EssayID != "" {
		t.Fatalf("unexpected preview: %+v", res.Grade)
	}
	list, _ := f.store.ListEssays(ctx, essay.ListOpts{})
	if len(list) != 0 {
		t.Fatalf("preview must not store essays, got %d", len(list))
	}
	if _, err := f.svc.PreviewGrade(ctx, student, grading.Request{Content: essayText}, "missing"); !errors.Is(err, essay.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRevertStaleGrading(t *testing.T) {
	f := newFixture(t, essay.WithStaleAfter(10*time.Minute))
	ctx := context.Background()
	e := f.submit(t, "")
	if _, err := f.store.SetStatus(ctx, e.ID, []essay.Status{essay.StatusSubmitted}, essay.StatusGrading, f.clock.Now()); err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(5 * time.Minute)
	if n, err := f.svc.RevertStaleGrading(ctx); err != nil || n != 0 {
		t.Fatalf("too early: n=%d err=%v", n, err)
	}
	f.clock.Advance(6 * time.Minute)
	if n, err := f.svc.RevertStaleGrading(ctx); err != nil || n != 1 {
		t.Fatalf("want 1 reverted, got n=%d err=%v", n, err)
	}
	got, _ := f.store.GetEssay(ctx, e.ID)
	if got.Status != essay.StatusSubmitted {
		t.Fatalf("want submitted, got %s", got.Status)
	}
}

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	if _, err := essay.NewSweeper(f.svc, "not a schedule"); err == nil {
		t.Fatal("want schedule parse error")
	}
	sw, err := essay.NewSweeper(f.svc, "@every 1h")
	if err != nil {
		t.Fatal(err)
	}
	sw.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sw.Stop(ctx)
}
