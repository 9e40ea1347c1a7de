package contacts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists contacts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetContact loads one contact scoped to the organization.
func (r *Repository) GetContact(ctx context.Context, orgID, contactID int64) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `SELECT id, org_id, code, name, contact_type, email, phone, is_active, created_at, updated_at
FROM contacts WHERE org_id=$1 AND id=$2`, orgID, contactID).
		Scan(&c.ID, &c.OrgID, &c.Code, &c.Name, &c.Type, &c.Email, &c.Phone, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, err
	}
	return c, nil
}
