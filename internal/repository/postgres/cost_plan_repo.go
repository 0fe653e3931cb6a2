package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const costPlanColumns = `id, workspace_id, name, max_employees, max_cnpjs, base_license_cost, billing_type,
	exemption_period_months, early_payment_discount_percentage, extra_employee_unit_cost, extra_cnpj_unit_cost,
	created_at, updated_at`

// CostPlanRepository implements domain.CostPlanRepository using PostgreSQL
type CostPlanRepository struct {
	pool *pgxpool.Pool
}

// NewCostPlanRepository creates a new CostPlanRepository
func NewCostPlanRepository(pool *pgxpool.Pool) *CostPlanRepository {
	return &CostPlanRepository{pool: pool}
}

// Create stores a new cost plan
func (r *CostPlanRepository) Create(plan *domain.CostPlan) (*domain.CostPlan, error) {
	nums, err := numericArgs(plan.BaseLicenseCost, plan.EarlyPaymentDiscountPercentage, plan.ExtraEmployeeUnitCost, plan.ExtraCNPJUnitCost)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO cost_plans (workspace_id, name, max_employees, max_cnpjs, base_license_cost, billing_type,
			exemption_period_months, early_payment_discount_percentage, extra_employee_unit_cost, extra_cnpj_unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+costPlanColumns,
		plan.WorkspaceID, plan.Name, plan.MaxEmployees, plan.MaxCNPJs, nums[0], string(plan.BillingType),
		plan.ExemptionPeriodMonths, nums[1], nums[2], nums[3],
	)
	return scanCostPlan(row)
}

// GetByID retrieves a cost plan within a workspace
func (r *CostPlanRepository) GetByID(workspaceID int32, id int32) (*domain.CostPlan, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+costPlanColumns+` FROM cost_plans WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanCostPlan(row)
}

// List returns the workspace's cost plans ordered by ID
func (r *CostPlanRepository) List(workspaceID int32) ([]*domain.CostPlan, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+costPlanColumns+` FROM cost_plans WHERE workspace_id = $1 ORDER BY id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []*domain.CostPlan{}
	for rows.Next() {
		plan, err := scanCostPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// Update replaces a stored cost plan
func (r *CostPlanRepository) Update(plan *domain.CostPlan) (*domain.CostPlan, error) {
	nums, err := numericArgs(plan.BaseLicenseCost, plan.EarlyPaymentDiscountPercentage, plan.ExtraEmployeeUnitCost, plan.ExtraCNPJUnitCost)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		UPDATE cost_plans
		SET name = $3, max_employees = $4, max_cnpjs = $5, base_license_cost = $6, billing_type = $7,
			exemption_period_months = $8, early_payment_discount_percentage = $9,
			extra_employee_unit_cost = $10, extra_cnpj_unit_cost = $11, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+costPlanColumns,
		plan.WorkspaceID, plan.ID, plan.Name, plan.MaxEmployees, plan.MaxCNPJs, nums[0], string(plan.BillingType),
		plan.ExemptionPeriodMonths, nums[1], nums[2], nums[3],
	)
	return scanCostPlan(row)
}

// Delete removes a cost plan; contracts pinned to it are unpinned by the foreign key
func (r *CostPlanRepository) Delete(workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM cost_plans WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCostPlanNotFound
	}
	return nil
}

func scanCostPlan(row rowScanner) (*domain.CostPlan, error) {
	var (
		p                 domain.CostPlan
		billingType       string
		baseLicenseCost   pgtype.Numeric
		discount          pgtype.Numeric
		extraEmployeeUnit pgtype.Numeric
		extraCNPJUnit     pgtype.Numeric
		createdAt         pgtype.Timestamptz
		updatedAt         pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.MaxEmployees, &p.MaxCNPJs, &baseLicenseCost, &billingType,
		&p.ExemptionPeriodMonths, &discount, &extraEmployeeUnit, &extraCNPJUnit, &createdAt, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCostPlanNotFound
		}
		return nil, err
	}
	p.BillingType = domain.PlanType(billingType)
	p.BaseLicenseCost = pgNumericToDecimal(baseLicenseCost)
	p.EarlyPaymentDiscountPercentage = pgNumericToDecimal(discount)
	p.ExtraEmployeeUnitCost = pgNumericToDecimal(extraEmployeeUnit)
	p.ExtraCNPJUnitCost = pgNumericToDecimal(extraCNPJUnit)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}
