package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/db"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides PostgreSQL backed persistence for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, name, company, email, phone, source, estimated_value,
	status, assigned_to, notes, created_at, updated_at`

// Insert persists a new lead.
func (r *Repository) Insert(ctx context.Context, lead Lead) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO leads
		   (id, name, company, email, phone, source, estimated_value, status, assigned_to, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		lead.ID, lead.Name,
		nullText(lead.Company), nullText(lead.Email), nullText(lead.Phone), nullText(lead.Source),
		lead.EstimatedValue, string(lead.Status), lead.AssignedTo, nullText(lead.Notes),
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert: %w", err)
	}
	return nil
}

// Get fetches one lead by id.
func (r *Repository) Get(ctx context.Context, id string) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

// ListByAssignee returns one seller's leads, most recent first.
func (r *Repository) ListByAssignee(ctx context.Context, assignedTo string) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE assigned_to = $1 ORDER BY created_at DESC`,
		assignedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// ListAll returns every lead, most recent first.
func (r *Repository) ListAll(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// Update rewrites the mutable fields of a lead.
func (r *Repository) Update(ctx context.Context, lead Lead) (int64, error) {
	return updateLead(ctx, r.pool, lead)
}

// UpdateWithActivity rewrites a lead and appends an activity row in one
// transaction, so a status change never lands without its log entry.
func (r *Repository) UpdateWithActivity(ctx context.Context, lead Lead, act Activity) (int64, error) {
	var rows int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		n, err := updateLead(ctx, tx, lead)
		if err != nil {
			return err
		}
		rows = n
		if n == 0 {
			return nil
		}
		return insertActivity(ctx, tx, act)
	})
	return rows, err
}

// InsertActivity appends one activity row for a lead.
func (r *Repository) InsertActivity(ctx context.Context, act Activity) error {
	return insertActivity(ctx, r.pool, act)
}

func updateLead(ctx context.Context, ex execer, lead Lead) (int64, error) {
	tag, err := ex.Exec(ctx,
		`UPDATE leads
		 SET name = $2, company = $3, email = $4, phone = $5, source = $6,
		     estimated_value = $7, status = $8, notes = $9, updated_at = $10
		 WHERE id = $1`,
		lead.ID, lead.Name,
		nullText(lead.Company), nullText(lead.Email), nullText(lead.Phone), nullText(lead.Source),
		lead.EstimatedValue, string(lead.Status), nullText(lead.Notes), lead.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("leads: update: %w", err)
	}
	return tag.RowsAffected(), nil
}

func insertActivity(ctx context.Context, ex execer, act Activity) error {
	_, err := ex.Exec(ctx,
		`INSERT INTO lead_activities (id, lead_id, user_id, kind, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		act.ID, act.LeadID, act.UserID, act.Kind, nullText(act.Note), act.CreatedAt)
	if err != nil {
		return fmt.Errorf("leads: insert activity: %w", err)
	}
	return nil
}

// ListActivities returns a lead's activities, most recent first.
func (r *Repository) ListActivities(ctx context.Context, leadID string) ([]Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, lead_id, user_id, kind, note, created_at
		 FROM lead_activities WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var act Activity
		var note pgtype.Text
		if err := rows.Scan(&act.ID, &act.LeadID, &act.UserID, &act.Kind, &note, &act.CreatedAt); err != nil {
			return nil, err
		}
		if note.Valid {
			act.Note = note.String
		}
		out = append(out, act)
	}
	return out, rows.Err()
}

// CountByStatus aggregates lead counts and open pipeline value. An empty
// assignedTo aggregates the whole book.
func (r *Repository) CountByStatus(ctx context.Context, assignedTo string) (map[Status]int, float64, error) {
	query := `SELECT status, COUNT(*),
	                 COALESCE(SUM(estimated_value) FILTER (WHERE status NOT IN ('closed_won', 'closed_lost')), 0)
	          FROM leads`
	args := []any{}
	if assignedTo != "" {
		query += ` WHERE assigned_to = $1`
		args = append(args, assignedTo)
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	var pipeline float64
	for rows.Next() {
		var status string
		var count int64
		var open float64
		if err := rows.Scan(&status, &count, &open); err != nil {
			return nil, 0, err
		}
		counts[Status(status)] = int(count)
		pipeline += open
	}
	return counts, pipeline, rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead                          Lead
		status                        string
		company, email, phone, source pgtype.Text
		notes                         pgtype.Text
	)
	err := row.Scan(&lead.ID, &lead.Name, &company, &email, &phone, &source,
		&lead.EstimatedValue, &status, &lead.AssignedTo, &notes, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	lead.Status = Status(status)
	lead.Company = company.String
	lead.Email = email.String
	lead.Phone = phone.String
	lead.Source = source.String
	lead.Notes = notes.String
	return &lead, nil
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	var out []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lead)
	}
	return out, rows.Err()
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
