package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for projects and
// their tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, name, description, status, manager_id, member_ids, deadline, created_at, updated_at`
const taskColumns = `id, project_id, title, details, status, assignee_id, due_date, created_at, updated_at`

// InsertProject persists a new project.
func (r *Repository) InsertProject(ctx context.Context, p Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, name, description, status, manager_id, member_ids, deadline, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, nullText(p.Description), string(p.Status), p.ManagerID,
		p.MemberIDs, nullDate(p.Deadline), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("projects: insert: %w", err)
	}
	return nil
}

// GetProject fetches one project by id.
func (r *Repository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// ListProjectsForUser returns projects where the user manages or is a
// member, most recent first.
func (r *Repository) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE manager_id = $1 OR $1 = ANY(member_ids)
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListAllProjects returns every project, most recent first.
func (r *Repository) ListAllProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// UpdateProject rewrites the mutable fields of a project.
func (r *Repository) UpdateProject(ctx context.Context, p Project) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects
		 SET name = $2, description = $3, status = $4, member_ids = $5, deadline = $6, updated_at = $7
		 WHERE id = $1`,
		p.ID, p.Name, nullText(p.Description), string(p.Status), p.MemberIDs,
		nullDate(p.Deadline), p.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("projects: update: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertTask persists a new task.
func (r *Repository) InsertTask(ctx context.Context, t Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO project_tasks (id, project_id, title, details, status, assignee_id, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ProjectID, t.Title, nullText(t.Details), string(t.Status),
		nullText(t.AssigneeID), nullDate(t.DueDate), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("projects: insert task: %w", err)
	}
	return nil
}

// GetTask fetches one task by id.
func (r *Repository) GetTask(ctx context.Context, id string) (*Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM project_tasks WHERE id = $1`, id)
	return scanTask(row)
}

// ListTasks returns a project's tasks, oldest first.
func (r *Repository) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM project_tasks WHERE project_id = $1 ORDER BY created_at ASC`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

// UpdateTask rewrites the mutable fields of a task.
func (r *Repository) UpdateTask(ctx context.Context, t Task) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE project_tasks
		 SET title = $2, details = $3, status = $4, assignee_id = $5, due_date = $6, updated_at = $7
		 WHERE id = $1`,
		t.ID, t.Title, nullText(t.Details), string(t.Status),
		nullText(t.AssigneeID), nullDate(t.DueDate), t.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("projects: update task: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PortfolioAggregate collects project counts, task counts per status and
// overdue open tasks.
func (r *Repository) PortfolioAggregate(ctx context.Context, asOf time.Time) (active, completed int, tasks map[TaskStatus]int, overdue int, err error) {
	row := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = 'active'),
		        COUNT(*) FILTER (WHERE status = 'completed')
		 FROM projects`)
	if err := row.Scan(&active, &completed); err != nil {
		return 0, 0, nil, 0, fmt.Errorf("projects: aggregate: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*),
		        COUNT(*) FILTER (WHERE due_date < $1 AND status <> 'completed')
		 FROM project_tasks GROUP BY status`,
		pgtype.Date{Time: asOf, Valid: true})
	if err != nil {
		return 0, 0, nil, 0, err
	}
	defer rows.Close()

	tasks = make(map[TaskStatus]int)
	for rows.Next() {
		var status string
		var count, over int64
		if err := rows.Scan(&status, &count, &over); err != nil {
			return 0, 0, nil, 0, err
		}
		tasks[TaskStatus(status)] = int(count)
		overdue += int(over)
	}
	return active, completed, tasks, overdue, rows.Err()
}

func scanProject(row pgx.Row) (*Project, error) {
	var (
		p           Project
		status      string
		description pgtype.Text
		deadline    pgtype.Date
	)
	err := row.Scan(&p.ID, &p.Name, &description, &status, &p.ManagerID,
		&p.MemberIDs, &deadline, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = Status(status)
	p.Description = description.String
	if deadline.Valid {
		t := deadline.Time
		p.Deadline = &t
	}
	return &p, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t        Task
		status   string
		details  pgtype.Text
		assignee pgtype.Text
		dueDate  pgtype.Date
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &details, &status,
		&assignee, &dueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Status = TaskStatus(status)
	t.Details = details.String
	t.AssigneeID = assignee.String
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	return &t, nil
}

func collectProjects(rows pgx.Rows) ([]Project, error) {
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func collectTasks(rows pgx.Rows) ([]Task, error) {
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
