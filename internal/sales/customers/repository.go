package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, company, email, phone, lead_id, account_manager,
	notes, created_at, updated_at`

// Insert persists a new customer. The unique lead_id constraint turns a
// double conversion into ErrAlreadyConverted.
func (r *Repository) Insert(ctx context.Context, c Customer) error {
	var leadID pgtype.Text
	if c.LeadID != nil {
		leadID = pgtype.Text{String: *c.LeadID, Valid: true}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO customers
		   (id, name, company, email, phone, lead_id, account_manager, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, nullText(c.Company), nullText(c.Email), nullText(c.Phone),
		leadID, c.AccountManager, nullText(c.Notes), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyConverted
		}
		return fmt.Errorf("customers: insert: %w", err)
	}
	return nil
}

// Get fetches one customer by id.
func (r *Repository) Get(ctx context.Context, id string) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

// GetByLead fetches the customer converted from a lead, if any.
func (r *Repository) GetByLead(ctx context.Context, leadID string) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE lead_id = $1`, leadID)
	return scanCustomer(row)
}

// ListByManager returns one seller's accounts, most recent first.
func (r *Repository) ListByManager(ctx context.Context, accountManager string) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE account_manager = $1 ORDER BY created_at DESC`,
		accountManager)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

// ListAll returns every account, most recent first.
func (r *Repository) ListAll(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

// Update rewrites the mutable fields of a customer.
func (r *Repository) Update(ctx context.Context, c Customer) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers
		 SET name = $2, company = $3, email = $4, phone = $5, notes = $6, updated_at = $7
		 WHERE id = $1`,
		c.ID, c.Name, nullText(c.Company), nullText(c.Email), nullText(c.Phone),
		nullText(c.Notes), c.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("customers: update: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var (
		c                     Customer
		company, email, phone pgtype.Text
		leadID, notes         pgtype.Text
	)
	err := row.Scan(&c.ID, &c.Name, &company, &email, &phone, &leadID,
		&c.AccountManager, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Company = company.String
	c.Email = email.String
	c.Phone = phone.String
	c.Notes = notes.String
	if leadID.Valid {
		c.LeadID = &leadID.String
	}
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]Customer, error) {
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
