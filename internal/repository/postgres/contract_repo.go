package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const contractColumns = `id, workspace_id, contractor_name, contractor_document, plan_type, base_value,
	start_date, trial_days, renewal_date, status, employee_count, cnpj_count, cost_plan_id, created_at, updated_at`

// ContractRepository implements domain.ContractRepository using PostgreSQL
type ContractRepository struct {
	pool *pgxpool.Pool
}

// NewContractRepository creates a new ContractRepository
func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

// Create creates a new contract
func (r *ContractRepository) Create(contract *domain.Contract) (*domain.Contract, error) {
	baseValue, err := decimalToPgNumeric(contract.BaseValue)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO contracts (workspace_id, contractor_name, contractor_document, plan_type, base_value,
			start_date, trial_days, renewal_date, status, employee_count, cnpj_count, cost_plan_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+contractColumns,
		contract.WorkspaceID, contract.ContractorName, contract.ContractorDocument, string(contract.PlanType), baseValue,
		timeToPgDate(contract.StartDate), contract.TrialDays, timePtrToPgDate(contract.RenewalDate), string(contract.Status),
		contract.EmployeeCount, contract.CNPJCount, int32PtrToPgInt4(contract.CostPlanID),
	)
	created, err := scanContract(row)
	if err != nil {
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrCostPlanNotFound
		}
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	return created, nil
}

// GetByID retrieves a contract within a workspace
func (r *ContractRepository) GetByID(workspaceID int32, id int32) (*domain.Contract, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+contractColumns+` FROM contracts WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanContract(row)
}

// List returns the workspace's contracts matching filter, ordered by ID
func (r *ContractRepository) List(workspaceID int32, filter domain.ContractFilter) ([]*domain.Contract, error) {
	conditions := []string{"workspace_id = $1"}
	args := []any{workspaceID}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PlanType != nil {
		args = append(args, string(*filter.PlanType))
		conditions = append(conditions, fmt.Sprintf("plan_type = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("contractor_name ILIKE $%d", len(args)))
	}

	rows, err := r.pool.Query(context.Background(),
		`SELECT `+contractColumns+` FROM contracts WHERE `+strings.Join(conditions, " AND ")+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := []*domain.Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// Update replaces a stored contract
func (r *ContractRepository) Update(contract *domain.Contract) (*domain.Contract, error) {
	baseValue, err := decimalToPgNumeric(contract.BaseValue)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		UPDATE contracts
		SET contractor_name = $3, contractor_document = $4, plan_type = $5, base_value = $6, start_date = $7,
			trial_days = $8, renewal_date = $9, status = $10, employee_count = $11, cnpj_count = $12,
			cost_plan_id = $13, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+contractColumns,
		contract.WorkspaceID, contract.ID, contract.ContractorName, contract.ContractorDocument,
		string(contract.PlanType), baseValue, timeToPgDate(contract.StartDate), contract.TrialDays,
		timePtrToPgDate(contract.RenewalDate), string(contract.Status), contract.EmployeeCount,
		contract.CNPJCount, int32PtrToPgInt4(contract.CostPlanID),
	)
	updated, err := scanContract(row)
	if err != nil && isPgForeignKeyViolation(err) {
		return nil, domain.ErrCostPlanNotFound
	}
	return updated, err
}

// updatePlanTerms writes the plan type and headcounts of an approved plan change inside tx
func updatePlanTerms(ctx context.Context, tx pgx.Tx, contract *domain.Contract) (*domain.Contract, error) {
	row := tx.QueryRow(ctx, `
		UPDATE contracts
		SET plan_type = $3, employee_count = $4, cnpj_count = $5, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+contractColumns,
		contract.WorkspaceID, contract.ID, string(contract.PlanType), contract.EmployeeCount, contract.CNPJCount,
	)
	return scanContract(row)
}

// UpdateRenewalDate sets only the renewal date
func (r *ContractRepository) UpdateRenewalDate(workspaceID int32, id int32, renewalDate time.Time) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE contracts SET renewal_date = $3, updated_at = NOW() WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id, timeToPgDate(renewalDate))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

// Delete removes the contract. Adjustments, locks, addons and the bank-slip cost cascade.
func (r *ContractRepository) Delete(workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM contracts WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func scanContract(row rowScanner) (*domain.Contract, error) {
	var (
		c           domain.Contract
		planType    string
		status      string
		baseValue   pgtype.Numeric
		startDate   pgtype.Date
		renewalDate pgtype.Date
		costPlanID  pgtype.Int4
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.ContractorName, &c.ContractorDocument, &planType, &baseValue,
		&startDate, &c.TrialDays, &renewalDate, &status, &c.EmployeeCount, &c.CNPJCount, &costPlanID,
		&createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrContractNotFound
		}
		return nil, err
	}
	c.PlanType = domain.PlanType(planType)
	c.Status = domain.ContractStatus(status)
	c.BaseValue = pgNumericToDecimal(baseValue)
	c.StartDate = pgDateToTime(startDate)
	c.RenewalDate = pgDateToTimePtr(renewalDate)
	c.CostPlanID = pgInt4ToInt32Ptr(costPlanID)
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}
