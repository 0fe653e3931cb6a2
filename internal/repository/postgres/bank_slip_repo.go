package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const bankSlipColumns = `id, workspace_id, contract_id, monthly_cost, billing_start_month, updated_at`

// BankSlipCostRepository implements domain.BankSlipCostRepository using PostgreSQL
type BankSlipCostRepository struct {
	pool *pgxpool.Pool
}

// NewBankSlipCostRepository creates a new BankSlipCostRepository
func NewBankSlipCostRepository(pool *pgxpool.Pool) *BankSlipCostRepository {
	return &BankSlipCostRepository{pool: pool}
}

// GetByContract returns the contract's bank-slip fee configuration
func (r *BankSlipCostRepository) GetByContract(workspaceID int32, contractID int32) (*domain.BankSlipCost, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+bankSlipColumns+` FROM bank_slip_costs WHERE workspace_id = $1 AND contract_id = $2`,
		workspaceID, contractID)
	return scanBankSlipCost(row)
}

// ListByWorkspace returns every bank-slip configuration in the workspace
func (r *BankSlipCostRepository) ListByWorkspace(workspaceID int32) ([]*domain.BankSlipCost, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+bankSlipColumns+` FROM bank_slip_costs WHERE workspace_id = $1 ORDER BY contract_id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	costs := []*domain.BankSlipCost{}
	for rows.Next() {
		cost, err := scanBankSlipCost(rows)
		if err != nil {
			return nil, err
		}
		costs = append(costs, cost)
	}
	return costs, rows.Err()
}

// Upsert stores the configuration, one row per contract
func (r *BankSlipCostRepository) Upsert(cost *domain.BankSlipCost) (*domain.BankSlipCost, error) {
	monthlyCost, err := decimalToPgNumeric(cost.MonthlyCost)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO bank_slip_costs (workspace_id, contract_id, monthly_cost, billing_start_month)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (contract_id)
		DO UPDATE SET monthly_cost = EXCLUDED.monthly_cost, billing_start_month = EXCLUDED.billing_start_month, updated_at = NOW()
		RETURNING `+bankSlipColumns,
		cost.WorkspaceID, cost.ContractID, monthlyCost, cost.BillingStartMonth,
	)
	saved, err := scanBankSlipCost(row)
	if err != nil && isPgForeignKeyViolation(err) {
		return nil, domain.ErrContractNotFound
	}
	return saved, err
}

// Delete removes the contract's configuration
func (r *BankSlipCostRepository) Delete(workspaceID int32, contractID int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM bank_slip_costs WHERE workspace_id = $1 AND contract_id = $2`, workspaceID, contractID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBankSlipCostNotFound
	}
	return nil
}

func scanBankSlipCost(row rowScanner) (*domain.BankSlipCost, error) {
	var (
		b           domain.BankSlipCost
		monthlyCost pgtype.Numeric
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(&b.ID, &b.WorkspaceID, &b.ContractID, &monthlyCost, &b.BillingStartMonth, &updatedAt); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBankSlipCostNotFound
		}
		return nil, err
	}
	b.MonthlyCost = pgNumericToDecimal(monthlyCost)
	b.UpdatedAt = updatedAt.Time
	return &b, nil
}
