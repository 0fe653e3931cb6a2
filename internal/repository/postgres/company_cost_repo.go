package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const companyCostColumns = `id, workspace_id, description, category, monthly_amount, is_active, created_at, updated_at`

// CompanyCostRepository implements domain.CompanyCostRepository using PostgreSQL
type CompanyCostRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyCostRepository creates a new CompanyCostRepository
func NewCompanyCostRepository(pool *pgxpool.Pool) *CompanyCostRepository {
	return &CompanyCostRepository{pool: pool}
}

// Create stores a new fixed cost
func (r *CompanyCostRepository) Create(cost *domain.CompanyCost) (*domain.CompanyCost, error) {
	amount, err := decimalToPgNumeric(cost.MonthlyAmount)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO company_costs (workspace_id, description, category, monthly_amount, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+companyCostColumns,
		cost.WorkspaceID, cost.Description, cost.Category, amount, cost.IsActive,
	)
	return scanCompanyCost(row)
}

// GetByID retrieves a fixed cost within a workspace
func (r *CompanyCostRepository) GetByID(workspaceID int32, id int32) (*domain.CompanyCost, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+companyCostColumns+` FROM company_costs WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanCompanyCost(row)
}

// List returns every fixed cost, active or not, ordered by ID
func (r *CompanyCostRepository) List(workspaceID int32) ([]*domain.CompanyCost, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+companyCostColumns+` FROM company_costs WHERE workspace_id = $1 ORDER BY id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	costs := []*domain.CompanyCost{}
	for rows.Next() {
		cost, err := scanCompanyCost(rows)
		if err != nil {
			return nil, err
		}
		costs = append(costs, cost)
	}
	return costs, rows.Err()
}

// Update replaces a stored fixed cost
func (r *CompanyCostRepository) Update(cost *domain.CompanyCost) (*domain.CompanyCost, error) {
	amount, err := decimalToPgNumeric(cost.MonthlyAmount)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		UPDATE company_costs
		SET description = $3, category = $4, monthly_amount = $5, is_active = $6, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+companyCostColumns,
		cost.WorkspaceID, cost.ID, cost.Description, cost.Category, amount, cost.IsActive,
	)
	return scanCompanyCost(row)
}

// Delete removes a fixed cost
func (r *CompanyCostRepository) Delete(workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM company_costs WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCompanyCostNotFound
	}
	return nil
}

func scanCompanyCost(row rowScanner) (*domain.CompanyCost, error) {
	var (
		c         domain.CompanyCost
		amount    pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.Description, &c.Category, &amount, &c.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCompanyCostNotFound
		}
		return nil, err
	}
	c.MonthlyAmount = pgNumericToDecimal(amount)
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}
