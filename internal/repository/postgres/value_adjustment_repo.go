package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const adjustmentColumns = `id, workspace_id, contract_id, kind, magnitude, previous_value, new_value, effective_date, notes,
	source, created_at`

// ValueAdjustmentRepository implements domain.ValueAdjustmentRepository using PostgreSQL
type ValueAdjustmentRepository struct {
	pool *pgxpool.Pool
}

// NewValueAdjustmentRepository creates a new ValueAdjustmentRepository
func NewValueAdjustmentRepository(pool *pgxpool.Pool) *ValueAdjustmentRepository {
	return &ValueAdjustmentRepository{pool: pool}
}

// CreateIfUnlocked inserts the adjustment unless (contract, renewal year) is locked. The lock row
// is created when missing and held FOR UPDATE so a concurrent lock cannot slip in between.
func (r *ValueAdjustmentRepository) CreateIfUnlocked(adjustment *domain.ValueAdjustment, renewalYear int) (*domain.ValueAdjustment, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := insertAdjustmentIfUnlocked(ctx, tx, adjustment, renewalYear)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment: %w", err)
	}
	return created, nil
}

// insertAdjustmentIfUnlocked runs the lock check and the insert inside tx
func insertAdjustmentIfUnlocked(ctx context.Context, tx pgx.Tx, adjustment *domain.ValueAdjustment, renewalYear int) (*domain.ValueAdjustment, error) {
	nums, err := numericArgs(adjustment.Magnitude, adjustment.PreviousValue, adjustment.NewValue)
	if err != nil {
		return nil, err
	}
	source := adjustment.Source
	if source == "" {
		source = domain.AdjustmentSourceManual
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO adjustment_locks (workspace_id, contract_id, renewal_year)
		VALUES ($1, $2, $3)
		ON CONFLICT (contract_id, renewal_year) DO NOTHING`,
		adjustment.WorkspaceID, adjustment.ContractID, renewalYear); err != nil {
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrContractNotFound
		}
		return nil, err
	}

	var locked bool
	err = tx.QueryRow(ctx, `
		SELECT is_locked FROM adjustment_locks
		WHERE contract_id = $1 AND renewal_year = $2
		FOR UPDATE`,
		adjustment.ContractID, renewalYear).Scan(&locked)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, domain.ErrPeriodLocked
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO value_adjustments (workspace_id, contract_id, kind, magnitude, previous_value, new_value,
			effective_date, notes, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+adjustmentColumns,
		adjustment.WorkspaceID, adjustment.ContractID, string(adjustment.Kind), nums[0], nums[1], nums[2],
		timeToPgDate(adjustment.EffectiveDate), stringPtrToPgText(adjustment.Notes), string(source),
	)
	return scanAdjustment(row)
}

// GetByID retrieves an adjustment within a workspace
func (r *ValueAdjustmentRepository) GetByID(workspaceID int32, id int32) (*domain.ValueAdjustment, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+adjustmentColumns+` FROM value_adjustments WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanAdjustment(row)
}

// ListByContract returns a contract's adjustments ordered by effective date, then insertion
func (r *ValueAdjustmentRepository) ListByContract(workspaceID int32, contractID int32) ([]*domain.ValueAdjustment, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT `+adjustmentColumns+` FROM value_adjustments
		WHERE workspace_id = $1 AND contract_id = $2
		ORDER BY effective_date, id`, workspaceID, contractID)
	if err != nil {
		return nil, err
	}
	return collectAdjustments(rows)
}

// ListByWorkspace returns every adjustment in the workspace
func (r *ValueAdjustmentRepository) ListByWorkspace(workspaceID int32) ([]*domain.ValueAdjustment, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT `+adjustmentColumns+` FROM value_adjustments
		WHERE workspace_id = $1
		ORDER BY contract_id, effective_date, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	return collectAdjustments(rows)
}

// Delete removes an adjustment
func (r *ValueAdjustmentRepository) Delete(workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM value_adjustments WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAdjustmentNotFound
	}
	return nil
}

func collectAdjustments(rows pgx.Rows) ([]*domain.ValueAdjustment, error) {
	defer rows.Close()
	adjustments := []*domain.ValueAdjustment{}
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

func scanAdjustment(row rowScanner) (*domain.ValueAdjustment, error) {
	var (
		a             domain.ValueAdjustment
		kind          string
		source        string
		magnitude     pgtype.Numeric
		previousValue pgtype.Numeric
		newValue      pgtype.Numeric
		effectiveDate pgtype.Date
		notes         pgtype.Text
		createdAt     pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.ContractID, &kind, &magnitude, &previousValue, &newValue,
		&effectiveDate, &notes, &source, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAdjustmentNotFound
		}
		return nil, err
	}
	a.Kind = domain.AdjustmentKind(kind)
	a.Magnitude = pgNumericToDecimal(magnitude)
	a.PreviousValue = pgNumericToDecimal(previousValue)
	a.NewValue = pgNumericToDecimal(newValue)
	a.EffectiveDate = pgDateToTime(effectiveDate)
	a.Notes = pgTextToStringPtr(notes)
	a.Source = domain.AdjustmentSource(source)
	a.CreatedAt = createdAt.Time
	return &a, nil
}
