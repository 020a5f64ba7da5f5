package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

// OrganizationRepository exposes the organization directory.
type OrganizationRepository interface {
	Upsert(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository returns a Postgres-backed implementation.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) Upsert(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (id, name, description)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description, updated_at=NOW()`

	_, err := r.pool.Exec(ctx, query, org.ID, org.Name, org.Description)
	return err
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `SELECT id, name, description FROM organizations WHERE id=$1`

	var org domain.Organization
	if err := r.pool.QueryRow(ctx, query, id).Scan(&org.ID, &org.Name, &org.Description); err != nil {
		return nil, err
	}
	return &org, nil
}
