package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, first_name, last_name, phone, position,
	department, role, manager_id, joining_date, is_active, created_at, updated_at`

// Get returns a user by id.
func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// List returns all users ordered by username.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListByManager returns users whose manager_id equals managerID.
func (r *Repository) ListByManager(ctx context.Context, managerID string) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE manager_id = $1 ORDER BY username`, managerID)
	if err != nil {
		return nil, fmt.Errorf("users: list by manager: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListByDepartment returns department members excluding the given user.
func (r *Repository) ListByDepartment(ctx context.Context, department, excludeID string) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE department = $1 AND id <> $2 ORDER BY username`,
		department, excludeID)
	if err != nil {
		return nil, fmt.Errorf("users: list by department: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListNonAdmins returns every user except admins and the given user.
func (r *Repository) ListNonAdmins(ctx context.Context, excludeID string) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role <> 'admin' AND id <> $1 ORDER BY username`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("users: list non-admins: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// TeamByLead returns the team whose lead is leadID, or ErrNotFound.
func (r *Repository) TeamByLead(ctx context.Context, leadID string) (*Team, error) {
	var t Team
	var department pgtype.Text
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, department, lead_id, created_at, updated_at FROM teams WHERE lead_id = $1`, leadID).
		Scan(&t.ID, &t.Name, &department, &t.LeadID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("users: team by lead: %w", err)
	}
	if department.Valid {
		t.Department = department.String
	}

	rows, err := r.pool.Query(ctx, `SELECT user_id FROM team_members WHERE team_id = $1`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("users: team members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		t.MemberIDs = append(t.MemberIDs, id)
	}
	return &t, rows.Err()
}

// GetMany returns users for the given ids, skipping unknown ids.
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("users: get many: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// UpdateProfile applies profile-owned fields and stamps updated_at.
func (r *Repository) UpdateProfile(ctx context.Context, id string, firstName, lastName, phone string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, phone = $4, updated_at = NOW() WHERE id = $1`,
		id, firstName, lastName, phone)
	if err != nil {
		return fmt.Errorf("users: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var firstName, lastName, phone, position, department, managerID pgtype.Text
	var joiningDate pgtype.Date
	err := row.Scan(&u.ID, &u.Username, &u.Email, &firstName, &lastName, &phone, &position,
		&department, &u.Role, &managerID, &joiningDate, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	if firstName.Valid {
		u.FirstName = firstName.String
	}
	if lastName.Valid {
		u.LastName = lastName.String
	}
	if phone.Valid {
		u.Phone = phone.String
	}
	if position.Valid {
		u.Position = position.String
	}
	if department.Valid {
		u.Department = department.String
	}
	if managerID.Valid {
		v := managerID.String
		u.ManagerID = &v
	}
	if joiningDate.Valid {
		v := joiningDate.Time
		u.JoiningDate = &v
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
