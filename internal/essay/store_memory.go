package essay

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

type memoryStore struct {
	mu          sync.RWMutex
	essays      map[string]Essay
	assignments map[string]Assignment
	rubrics     map[string]grading.Rubric
	grades      map[string]grading.Grade // by essay id
}

func NewMemoryStore() Store {
	return &memoryStore{
		essays:      map[string]Essay{},
		assignments: map[string]Assignment{},
		rubrics:     map[string]grading.Rubric{},
		grades:      map[string]grading.Grade{},
	}
}

func (m *memoryStore) CreateEssay(_ context.Context, e Essay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.essays[e.ID]; ok {
		return fmt.Errorf("%w: essay %s already exists", ErrPersistence, e.ID)
	}
	m.essays[e.ID] = e
	return nil
}

func (m *memoryStore) GetEssay(_ context.Context, id string) (Essay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.essays[id]
	if !ok {
		return Essay{}, fmt.Errorf("essay %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (m *memoryStore) ListEssays(_ context.Context, opts ListOpts) ([]Essay, error) {
	m.mu.RLock()
	out := make([]Essay, 0, len(m.essays))
	for _, e := range m.essays {
		if opts.StudentID != "" && e.StudentID != opts.StudentID {
			continue
		}
		if opts.AssignmentID != "" && e.AssignmentID != opts.AssignmentID {
			continue
		}
		if opts.Status != "" && e.Status != opts.Status {
			continue
		}
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) SetStatus(_ context.Context, id string, from []Status, to Status, at time.Time) (Essay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.essays[id]
	if !ok {
		return Essay{}, fmt.Errorf("essay %s: %w", id, ErrNotFound)
	}
	if !statusIn(e.Status, from) {
		return Essay{}, fmt.Errorf("%w: essay %s is %s", ErrInvalidTransition, id, e.Status)
	}
	e.Status = to
	e.StatusChangedAt = at
	m.essays[id] = e
	return e, nil
}

func (m *memoryStore) RevertStaleGrading(_ context.Context, before, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.essays {
		if e.Status == StatusGrading && e.StatusChangedAt.Before(before) {
			e.Status = StatusSubmitted
			e.StatusChangedAt = at
			m.essays[id] = e
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) PutAssignment(_ context.Context, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = a
	return nil
}

func (m *memoryStore) GetAssignment(_ context.Context, id string) (Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *memoryStore) PutRubric(_ context.Context, r grading.Rubric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rubrics[r.ID] = cloneRubric(r)
	return nil
}

func (m *memoryStore) GetRubric(_ context.Context, id string) (grading.Rubric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rubrics[id]
	if !ok {
		return grading.Rubric{}, fmt.Errorf("rubric %s: %w", id, ErrNotFound)
	}
	return cloneRubric(r), nil
}

func (m *memoryStore) ListRubrics(_ context.Context) ([]grading.Rubric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]grading.Rubric, 0, len(m.rubrics))
	for _, r := range m.rubrics {
		out = append(out, cloneRubric(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) DeleteRubric(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rubrics[id]; !ok {
		return fmt.Errorf("rubric %s: %w", id, ErrNotFound)
	}
	delete(m.rubrics, id)
	return nil
}

func (m *memoryStore) UpsertGrade(_ context.Context, g grading.Grade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.essays[g.EssayID]; !ok {
		return fmt.Errorf("%w: grade for unknown essay %s", ErrPersistence, g.EssayID)
	}
	m.grades[g.EssayID] = cloneGrade(g)
	return nil
}

func (m *memoryStore) GetGrade(_ context.Context, essayID string) (*grading.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grades[essayID]
	if !ok {
		return nil, nil
	}
	c := cloneGrade(g)
	return &c, nil
}

func cloneRubric(r grading.Rubric) grading.Rubric {
	r.Criteria = maps.Clone(r.Criteria)
	return r
}

func cloneGrade(g grading.Grade) grading.Grade {
	g.CriteriaScores = maps.Clone(g.CriteriaScores)
	g.DetailedFeedback = maps.Clone(g.DetailedFeedback)
	g.Suggestions = slices.Clone(g.Suggestions)
	return g
}

func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return in[:0]
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
