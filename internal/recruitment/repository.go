package recruitment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for postings and
// applications.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postingColumns = `id, title, department, description, requirements, status, posted_by, created_at, updated_at`
const applicationColumns = `id, posting_id, candidate_name, candidate_email, resume_url, notes, stage, created_at, updated_at`

// InsertPosting persists a new posting.
func (r *Repository) InsertPosting(ctx context.Context, p Posting) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO job_postings (id, title, department, description, requirements, status, posted_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Title, p.Department, nullText(p.Description), nullText(p.Requirements),
		string(p.Status), p.PostedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("recruitment: insert posting: %w", err)
	}
	return nil
}

// GetPosting fetches one posting by id.
func (r *Repository) GetPosting(ctx context.Context, id string) (*Posting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id)
	return scanPosting(row)
}

// ListPostings returns postings, optionally filtered by status, newest
// first.
func (r *Repository) ListPostings(ctx context.Context, status PostingStatus) ([]Posting, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = r.pool.Query(ctx,
			`SELECT `+postingColumns+` FROM job_postings ORDER BY created_at DESC`)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+postingColumns+` FROM job_postings WHERE status = $1 ORDER BY created_at DESC`,
			string(status))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPostings(rows)
}

// UpdatePosting rewrites the mutable fields of a posting.
func (r *Repository) UpdatePosting(ctx context.Context, p Posting) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE job_postings
		 SET title = $2, department = $3, description = $4, requirements = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		p.ID, p.Title, p.Department, nullText(p.Description), nullText(p.Requirements),
		string(p.Status), p.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recruitment: update posting: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertApplication persists a new application.
func (r *Repository) InsertApplication(ctx context.Context, a Application) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO job_applications (id, posting_id, candidate_name, candidate_email, resume_url, notes, stage, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.PostingID, a.CandidateName, a.CandidateEmail,
		nullText(a.ResumeURL), nullText(a.Notes), string(a.Stage), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("recruitment: insert application: %w", err)
	}
	return nil
}

// GetApplication fetches one application by id.
func (r *Repository) GetApplication(ctx context.Context, id string) (*Application, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM job_applications WHERE id = $1`, id)
	return scanApplication(row)
}

// ListApplications returns a posting's applications, oldest first.
func (r *Repository) ListApplications(ctx context.Context, postingID string) ([]Application, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE posting_id = $1 ORDER BY created_at ASC`,
		postingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

// AdvanceApplication moves an application to the next stage only if it
// is still at the expected one. Zero rows means a concurrent move won.
func (r *Repository) AdvanceApplication(ctx context.Context, id string, from, to Stage, notes string, updatedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE job_applications
		 SET stage = $3, notes = COALESCE(NULLIF($4, ''), notes), updated_at = $5
		 WHERE id = $1 AND stage = $2`,
		id, string(from), string(to), notes, updatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recruitment: advance application: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPosting(row pgx.Row) (*Posting, error) {
	var (
		p            Posting
		status       string
		description  pgtype.Text
		requirements pgtype.Text
	)
	err := row.Scan(&p.ID, &p.Title, &p.Department, &description, &requirements,
		&status, &p.PostedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = PostingStatus(status)
	p.Description = description.String
	p.Requirements = requirements.String
	return &p, nil
}

func scanApplication(row pgx.Row) (*Application, error) {
	var (
		a      Application
		stage  string
		resume pgtype.Text
		notes  pgtype.Text
	)
	err := row.Scan(&a.ID, &a.PostingID, &a.CandidateName, &a.CandidateEmail,
		&resume, &notes, &stage, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Stage = Stage(stage)
	a.ResumeURL = resume.String
	a.Notes = notes.String
	return &a, nil
}

func collectPostings(rows pgx.Rows) ([]Posting, error) {
	var out []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func collectApplications(rows pgx.Rows) ([]Application, error) {
	var out []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
