package essay

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

// SQLStore works against both SQLite and Postgres; every query uses $N
// placeholders, which both drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

/* ---------------- essays ---------------- */

const essayColumns = `id,assignment_id,student_id,title,content,status,submitted_at,status_changed_at`

func (s *SQLStore) CreateEssay(ctx context.Context, e Essay) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO essays (`+essayColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.AssignmentID, e.StudentID, e.Title, e.Content, string(e.Status),
		millis(e.SubmittedAt), millis(e.StatusChangedAt))
	if err != nil {
		return persistErr("create essay", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEssay(row scanner) (Essay, error) {
	var e Essay
	var status string
	var submitted, changed int64
	if err := row.Scan(&e.ID, &e.AssignmentID, &e.StudentID, &e.Title, &e.Content, &status, &submitted, &changed); err != nil {
		return Essay{}, err
	}
	e.Status = Status(status)
	e.SubmittedAt = fromMillis(submitted)
	e.StatusChangedAt = fromMillis(changed)
	return e, nil
}

func (s *SQLStore) GetEssay(ctx context.Context, id string) (Essay, error) {
	e, err := scanEssay(s.db.QueryRowContext(ctx, `SELECT `+essayColumns+` FROM essays WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Essay{}, fmt.Errorf("essay %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Essay{}, persistErr("get essay", err)
	}
	return e, nil
}

func (s *SQLStore) ListEssays(ctx context.Context, opts ListOpts) ([]Essay, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.StudentID != "" {
		add("student_id=$%d", opts.StudentID)
	}
	if opts.AssignmentID != "" {
		add("assignment_id=$%d", opts.AssignmentID)
	}
	if opts.Status != "" {
		add("status=$%d", string(opts.Status))
	}

	q := `SELECT ` + essayColumns + ` FROM essays`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY submitted_at DESC, id ASC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += " LIMIT $" + strconv.Itoa(len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			q += " OFFSET $" + strconv.Itoa(len(args))
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, persistErr("list essays", err)
	}
	defer rows.Close()
	out := []Essay{}
	for rows.Next() {
		e, err := scanEssay(rows)
		if err != nil {
			return nil, persistErr("scan essay", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list essays", err)
	}
	if opts.Limit <= 0 && opts.Offset > 0 {
		out = page(out, 0, opts.Offset)
	}
	return out, nil
}

func (s *SQLStore) SetStatus(ctx context.Context, id string, from []Status, to Status, at time.Time) (Essay, error) {
	args := []any{string(to), millis(at), id}
	marks := make([]string, len(from))
	for i, st := range from {
		args = append(args, string(st))
		marks[i] = "$" + strconv.Itoa(len(args))
	}
	q := `UPDATE essays SET status=$1, status_changed_at=$2 WHERE id=$3`
	if len(from) > 0 {
		q += ` AND status IN (` + strings.Join(marks, ",") + `)`
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return Essay{}, persistErr("set status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Essay{}, persistErr("set status", err)
	}
	if n == 0 {
		cur, err := s.GetEssay(ctx, id)
		if err != nil {
			return Essay{}, err
		}
		return Essay{}, fmt.Errorf("%w: essay %s is %s", ErrInvalidTransition, id, cur.Status)
	}
	return s.GetEssay(ctx, id)
}

func (s *SQLStore) RevertStaleGrading(ctx context.Context, before, at time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE essays SET status=$1, status_changed_at=$2 WHERE status=$3 AND status_changed_at < $4`,
		string(StatusSubmitted), millis(at), string(StatusGrading), millis(before))
	if err != nil {
		return 0, persistErr("revert stale grading", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistErr("revert stale grading", err)
	}
	return int(n), nil
}

/* ---------------- assignments ---------------- */

func (s *SQLStore) PutAssignment(ctx context.Context, a Assignment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments (id,title,description,rubric_id,teacher_id,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description, rubric_id=EXCLUDED.rubric_id`,
		a.ID, a.Title, a.Description, a.RubricID, a.TeacherID, millis(a.CreatedAt))
	if err != nil {
		return persistErr("put assignment", err)
	}
	return nil
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	var a Assignment
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,rubric_id,teacher_id,created_at FROM assignments WHERE id=$1`, id,
	).Scan(&a.ID, &a.Title, &a.Description, &a.RubricID, &a.TeacherID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Assignment{}, persistErr("get assignment", err)
	}
	a.CreatedAt = fromMillis(created)
	return a, nil
}

/* ---------------- rubrics ---------------- */

func (s *SQLStore) PutRubric(ctx context.Context, r grading.Rubric) error {
	cj, err := json.Marshal(r.Criteria)
	if err != nil {
		return persistErr("encode rubric", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO rubrics (id,name,description,criteria_json,max_score,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description,
			criteria_json=EXCLUDED.criteria_json, max_score=EXCLUDED.max_score, updated_at=EXCLUDED.updated_at`,
		r.ID, r.Name, r.Description, string(cj), r.MaxScore, time.Now().UnixMilli())
	if err != nil {
		return persistErr("put rubric", err)
	}
	return nil
}

func scanRubric(row scanner) (grading.Rubric, error) {
	var r grading.Rubric
	var cj string
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &cj, &r.MaxScore); err != nil {
		return grading.Rubric{}, err
	}
	if err := json.Unmarshal([]byte(cj), &r.Criteria); err != nil {
		return grading.Rubric{}, err
	}
	return r, nil
}

func (s *SQLStore) GetRubric(ctx context.Context, id string) (grading.Rubric, error) {
	r, err := scanRubric(s.db.QueryRowContext(ctx,
		`SELECT id,name,description,criteria_json,max_score FROM rubrics WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return grading.Rubric{}, fmt.Errorf("rubric %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return grading.Rubric{}, persistErr("get rubric", err)
	}
	return r, nil
}

func (s *SQLStore) ListRubrics(ctx context.Context) ([]grading.Rubric, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,description,criteria_json,max_score FROM rubrics ORDER BY id`)
	if err != nil {
		return nil, persistErr("list rubrics", err)
	}
	defer rows.Close()
	out := []grading.Rubric{}
	for rows.Next() {
		r, err := scanRubric(rows)
		if err != nil {
			return nil, persistErr("scan rubric", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list rubrics", err)
	}
	return out, nil
}

func (s *SQLStore) DeleteRubric(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rubrics WHERE id=$1`, id)
	if err != nil {
		return persistErr("delete rubric", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rubric %s: %w", id, ErrNotFound)
	}
	return nil
}

/* ---------------- grades ---------------- */

func (s *SQLStore) UpsertGrade(ctx context.Context, g grading.Grade) error {
	cj, err := json.Marshal(g.CriteriaScores)
	if err != nil {
		return persistErr("encode grade", err)
	}
	dj, err := json.Marshal(g.DetailedFeedback)
	if err != nil {
		return persistErr("encode grade", err)
	}
	sj, err := json.Marshal(g.Suggestions)
	if err != nil {
		return persistErr("encode grade", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO grades (essay_id,total_score,max_score,criteria_json,feedback,detailed_json,
			suggestions_json,graded_by,teacher_id,rubric_id,chunks_processed,graded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (essay_id) DO UPDATE SET total_score=EXCLUDED.total_score, max_score=EXCLUDED.max_score,
			criteria_json=EXCLUDED.criteria_json, feedback=EXCLUDED.feedback, detailed_json=EXCLUDED.detailed_json,
			suggestions_json=EXCLUDED.suggestions_json, graded_by=EXCLUDED.graded_by, teacher_id=EXCLUDED.teacher_id,
			rubric_id=EXCLUDED.rubric_id, chunks_processed=EXCLUDED.chunks_processed, graded_at=EXCLUDED.graded_at`,
		g.EssayID, g.TotalScore, g.MaxScore, string(cj), g.Feedback, string(dj),
		string(sj), string(g.GradedBy), g.TeacherID, g.RubricID, g.ChunksProcessed, millis(g.GradedAt))
	if err != nil {
		return persistErr("upsert grade", err)
	}
	return nil
}

func (s *SQLStore) GetGrade(ctx context.Context, essayID string) (*grading.Grade, error) {
	var g grading.Grade
	var cj, dj, sj, by string
	var at int64
	err := s.db.QueryRowContext(ctx, `SELECT essay_id,total_score,max_score,criteria_json,feedback,detailed_json,
			suggestions_json,graded_by,teacher_id,rubric_id,chunks_processed,graded_at
		FROM grades WHERE essay_id=$1`, essayID,
	).Scan(&g.EssayID, &g.TotalScore, &g.MaxScore, &cj, &g.Feedback, &dj,
		&sj, &by, &g.TeacherID, &g.RubricID, &g.ChunksProcessed, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get grade", err)
	}
	if err := json.Unmarshal([]byte(cj), &g.CriteriaScores); err != nil {
		return nil, persistErr("decode grade", err)
	}
	if err := json.Unmarshal([]byte(dj), &g.DetailedFeedback); err != nil {
		return nil, persistErr("decode grade", err)
	}
	if err := json.Unmarshal([]byte(sj), &g.Suggestions); err != nil {
		return nil, persistErr("decode grade", err)
	}
	g.GradedBy = grading.GradedBy(by)
	g.GradedAt = fromMillis(at)
	return &g, nil
}
