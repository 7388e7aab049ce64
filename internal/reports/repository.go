package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for daily reports.
// The table carries a unique constraint on (user_id, report_date).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reportColumns = `id, user_id, report_date, content, blockers, plans, created_at, updated_at`

// Insert persists a new report. A second report for the same user and
// day surfaces as ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, rep Report) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO daily_reports (id, user_id, report_date, content, blockers, plans, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rep.ID, rep.UserID, pgtype.Date{Time: rep.ReportDate, Valid: true},
		rep.Content, nullText(rep.Blockers), nullText(rep.Plans),
		rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("reports: insert: %w", err)
	}
	return nil
}

// Get fetches one report by id.
func (r *Repository) Get(ctx context.Context, id string) (*Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM daily_reports WHERE id = $1`, id)
	return scanReport(row)
}

// GetByUserDate fetches the report a user filed for one day.
func (r *Repository) GetByUserDate(ctx context.Context, userID string, date time.Time) (*Report, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM daily_reports WHERE user_id = $1 AND report_date = $2`,
		userID, pgtype.Date{Time: date, Valid: true})
	return scanReport(row)
}

// ListRange returns one user's reports in [from, to], newest first.
func (r *Repository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]Report, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM daily_reports
		 WHERE user_id = $1 AND report_date BETWEEN $2 AND $3
		 ORDER BY report_date DESC`,
		userID,
		pgtype.Date{Time: from, Valid: true},
		pgtype.Date{Time: to, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

// ListByUsersDate returns the reports a set of users filed on one day.
func (r *Repository) ListByUsersDate(ctx context.Context, userIDs []string, date time.Time) ([]Report, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM daily_reports
		 WHERE user_id = ANY($1) AND report_date = $2
		 ORDER BY created_at ASC`,
		userIDs, pgtype.Date{Time: date, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

// Update rewrites the mutable fields of a report.
func (r *Repository) Update(ctx context.Context, rep Report) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE daily_reports
		 SET content = $2, blockers = $3, plans = $4, updated_at = $5
		 WHERE id = $1`,
		rep.ID, rep.Content, nullText(rep.Blockers), nullText(rep.Plans), rep.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("reports: update: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var (
		rep      Report
		date     pgtype.Date
		blockers pgtype.Text
		plans    pgtype.Text
	)
	err := row.Scan(&rep.ID, &rep.UserID, &date, &rep.Content,
		&blockers, &plans, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rep.ReportDate = date.Time
	rep.Blockers = blockers.String
	rep.Plans = plans.String
	return &rep, nil
}

func collectReports(rows pgx.Rows) ([]Report, error) {
	var out []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
