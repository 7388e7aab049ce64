package attendance

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

// Repository provides PostgreSQL backed persistence for attendance.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, user_id, date, check_in, check_out, is_late, work_hours,
	location, note, created_at, updated_at`

// Insert persists a new check-in record. The unique (user_id, date)
// constraint turns a same-day double check-in into ErrAlreadyCheckedIn.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attendance_records
		   (id, user_id, date, check_in, is_late, work_hours, location, note, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.UserID,
		pgtype.Date{Time: rec.Date, Valid: true},
		rec.CheckIn, rec.IsLate, rec.WorkHours,
		pgtype.Text{String: rec.Location, Valid: rec.Location != ""},
		pgtype.Text{String: rec.Note, Valid: rec.Note != ""},
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyCheckedIn
		}
		return fmt.Errorf("attendance: insert: %w", err)
	}
	return nil
}

// GetByUserDate fetches the record for one user and date.
func (r *Repository) GetByUserDate(ctx context.Context, userID string, date time.Time) (*Record, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE user_id = $1 AND date = $2`,
		userID, pgtype.Date{Time: date, Valid: true})
	return scanRecord(row)
}

// SetCheckOut completes an open record. The check_out IS NULL guard makes
// a repeated check-out report zero rows instead of overwriting.
func (r *Repository) SetCheckOut(ctx context.Context, id string, checkOut time.Time, workHours float64, updatedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attendance_records
		 SET check_out = $2, work_hours = $3, updated_at = $4
		 WHERE id = $1 AND check_out IS NULL`,
		id, checkOut, workHours, updatedAt)
	if err != nil {
		return 0, fmt.Errorf("attendance: check out: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListRange returns a user's records between two dates inclusive, most
// recent day first.
func (r *Repository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM attendance_records
		 WHERE user_id = $1 AND date BETWEEN $2 AND $3
		 ORDER BY date DESC`,
		userID, pgtype.Date{Time: from, Valid: true}, pgtype.Date{Time: to, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListByUsersDate returns the records of a set of users for one date.
func (r *Repository) ListByUsersDate(ctx context.Context, userIDs []string, date time.Time) ([]Record, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM attendance_records
		 WHERE user_id = ANY($1) AND date = $2`,
		userIDs, pgtype.Date{Time: date, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// MonthAggregate sums one user's present days, late days and hours for a
// calendar month.
func (r *Repository) MonthAggregate(ctx context.Context, userID string, year int, month time.Month) (present, late int, hours float64, err error) {
	row := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_late),
		        COALESCE(SUM(work_hours), 0)
		 FROM attendance_records
		 WHERE user_id = $1
		   AND EXTRACT(YEAR FROM date) = $2
		   AND EXTRACT(MONTH FROM date) = $3`,
		userID, year, int(month))
	if err := row.Scan(&present, &late, &hours); err != nil {
		return 0, 0, 0, fmt.Errorf("attendance: month aggregate: %w", err)
	}
	return present, late, hours, nil
}

// DeleteOlderThan removes records before the cutoff date. Used by the
// retention worker.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM attendance_records WHERE date < $1`,
		pgtype.Date{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("attendance: delete older than: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec      Record
		date     pgtype.Date
		checkOut pgtype.Timestamptz
		location pgtype.Text
		note     pgtype.Text
	)
	err := row.Scan(&rec.ID, &rec.UserID, &date, &rec.CheckIn, &checkOut, &rec.IsLate,
		&rec.WorkHours, &location, &note, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Date = date.Time
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOut = &t
	}
	if location.Valid {
		rec.Location = location.String
	}
	if note.Valid {
		rec.Note = note.String
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
