package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	FindByUsername(ctx context.Context, username string) (*Credential, error)
	CreateSession(ctx context.Context, rec SessionRecord) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const credentialColumns = `id, username, email, password_hash, role, is_active`

// FindByEmail fetches login credentials by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM users WHERE email = $1`, email)
	return scanCredential(row)
}

// FindByUsername fetches login credentials by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM users WHERE username = $1`, username)
	return scanCredential(row)
}

// CreateSession persists a login session row for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, rec SessionRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID,
		pgtype.Timestamptz{Time: rec.CreatedAt.UTC(), Valid: true},
		pgtype.Timestamptz{Time: rec.ExpiresAt.UTC(), Valid: true},
		pgtype.Text{String: rec.IP, Valid: rec.IP != ""},
		pgtype.Text{String: rec.UserAgent, Valid: rec.UserAgent != ""},
	)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func scanCredential(row pgx.Row) (*Credential, error) {
	var c Credential
	if err := row.Scan(&c.UserID, &c.Username, &c.Email, &c.PasswordHash, &c.Role, &c.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ Repository = (*PGRepository)(nil)
