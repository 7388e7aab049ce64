package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for leave requests.
//
// Every state transition is a conditional UPDATE guarded by
// status = 'pending'. A zero row count on an existing record means a
// concurrent transition won the race, so the read-check-write sequence
// stays atomic without holding a transaction across the check.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `id, user_id, leave_type, start_date, end_date, duration_days,
	reason, status, approver_id, approver_comments, approved_at, created_at, updated_at`

// Insert persists a new leave request.
func (r *Repository) Insert(ctx context.Context, req Request) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO leave_requests
		   (id, user_id, leave_type, start_date, end_date, duration_days, reason, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.UserID, string(req.LeaveType),
		pgtype.Date{Time: req.StartDate, Valid: true},
		pgtype.Date{Time: req.EndDate, Valid: true},
		req.DurationDays,
		pgtype.Text{String: req.Reason, Valid: req.Reason != ""},
		string(req.Status), req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("leave: insert: %w", err)
	}
	return nil
}

// Get fetches one request by id.
func (r *Repository) Get(ctx context.Context, id string) (*Request, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = $1`, id)
	return scanRequest(row)
}

// ListByUser returns a user's requests, optionally filtered by status,
// most recent first.
func (r *Repository) ListByUser(ctx context.Context, userID string, status Status) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListPendingByUsers returns pending requests filed by any of the given
// users, oldest first so approvers work the queue in arrival order.
func (r *Repository) ListPendingByUsers(ctx context.Context, userIDs []string) ([]Request, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM leave_requests
		 WHERE status = 'pending' AND user_id = ANY($1)
		 ORDER BY created_at ASC`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListAllPending returns every pending request, oldest first.
func (r *Repository) ListAllPending(ctx context.Context) ([]Request, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM leave_requests
		 WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// UpdatePendingFields patches the mutable fields of a still-pending
// request. Returns the number of rows updated; zero means the record
// either does not exist or already left the pending state.
func (r *Repository) UpdatePendingFields(ctx context.Context, id string, leaveType Type, start, end time.Time, durationDays int, reason string, updatedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leave_requests
		 SET leave_type = $2, start_date = $3, end_date = $4, duration_days = $5,
		     reason = $6, updated_at = $7
		 WHERE id = $1 AND status = 'pending'`,
		id, string(leaveType),
		pgtype.Date{Time: start, Valid: true},
		pgtype.Date{Time: end, Valid: true},
		durationDays,
		pgtype.Text{String: reason, Valid: reason != ""},
		updatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("leave: update fields: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DecidePending transitions a pending request to approved or rejected.
// Returns the number of rows updated; zero means the record no longer
// waits in pending.
func (r *Repository) DecidePending(ctx context.Context, id string, decision Status, approverID string, comments string, approvedAt *time.Time, updatedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leave_requests
		 SET status = $2, approver_id = $3, approver_comments = $4, approved_at = $5, updated_at = $6
		 WHERE id = $1 AND status = 'pending'`,
		id, string(decision), approverID,
		pgtype.Text{String: comments, Valid: comments != ""},
		nullableTimestamp(approvedAt), updatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("leave: decide: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CancelPending transitions a pending request to cancelled without
// touching the approver fields.
func (r *Repository) CancelPending(ctx context.Context, id string, updatedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leave_requests
		 SET status = 'cancelled', updated_at = $2
		 WHERE id = $1 AND status = 'pending'`,
		id, updatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("leave: cancel: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ApprovedDaysByType sums approved leave days per type for one user and
// calendar year, keyed on the request's start date.
func (r *Repository) ApprovedDaysByType(ctx context.Context, userID string, year int) (map[Type]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT leave_type, COALESCE(SUM(duration_days), 0)
		 FROM leave_requests
		 WHERE user_id = $1 AND status = 'approved'
		   AND EXTRACT(YEAR FROM start_date) = $2
		 GROUP BY leave_type`, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	used := make(map[Type]int)
	for rows.Next() {
		var leaveType string
		var days int64
		if err := rows.Scan(&leaveType, &days); err != nil {
			return nil, err
		}
		used[Type(leaveType)] = int(days)
	}
	return used, rows.Err()
}

func scanRequest(row pgx.Row) (*Request, error) {
	var (
		req        Request
		leaveType  string
		status     string
		start, end pgtype.Date
		reason     pgtype.Text
		approver   pgtype.Text
		comments   pgtype.Text
		approvedAt pgtype.Timestamptz
	)
	err := row.Scan(&req.ID, &req.UserID, &leaveType, &start, &end, &req.DurationDays,
		&reason, &status, &approver, &comments, &approvedAt, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	req.LeaveType = Type(leaveType)
	req.Status = Status(status)
	req.StartDate = start.Time
	req.EndDate = end.Time
	if reason.Valid {
		req.Reason = reason.String
	}
	if approver.Valid {
		req.ApproverID = &approver.String
	}
	if comments.Valid {
		req.ApproverComments = &comments.String
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		req.ApprovedAt = &t
	}
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func nullableTimestamp(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
