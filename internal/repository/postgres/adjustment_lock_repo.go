package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const lockColumns = `id, workspace_id, contract_id, renewal_year, is_locked, unlock_reason, updated_at`

// AdjustmentLockRepository implements domain.AdjustmentLockRepository using PostgreSQL
type AdjustmentLockRepository struct {
	pool *pgxpool.Pool
}

// NewAdjustmentLockRepository creates a new AdjustmentLockRepository
func NewAdjustmentLockRepository(pool *pgxpool.Pool) *AdjustmentLockRepository {
	return &AdjustmentLockRepository{pool: pool}
}

// Get returns the lock row, or an unlocked placeholder with ID 0 when none exists
func (r *AdjustmentLockRepository) Get(workspaceID int32, contractID int32, renewalYear int32) (*domain.AdjustmentLock, error) {
	row := r.pool.QueryRow(context.Background(), `
		SELECT `+lockColumns+` FROM adjustment_locks
		WHERE workspace_id = $1 AND contract_id = $2 AND renewal_year = $3`,
		workspaceID, contractID, renewalYear)
	lock, err := scanLock(row)
	if err != nil {
		if isNoRows(err) {
			return &domain.AdjustmentLock{WorkspaceID: workspaceID, ContractID: contractID, RenewalYear: renewalYear}, nil
		}
		return nil, err
	}
	return lock, nil
}

// ListByContract returns the contract's lock rows ordered by year
func (r *AdjustmentLockRepository) ListByContract(workspaceID int32, contractID int32) ([]*domain.AdjustmentLock, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT `+lockColumns+` FROM adjustment_locks
		WHERE workspace_id = $1 AND contract_id = $2
		ORDER BY renewal_year`, workspaceID, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locks := []*domain.AdjustmentLock{}
	for rows.Next() {
		lock, err := scanLock(rows)
		if err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}

// Upsert creates or updates the lock row for (contract, year)
func (r *AdjustmentLockRepository) Upsert(lock *domain.AdjustmentLock) (*domain.AdjustmentLock, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO adjustment_locks (workspace_id, contract_id, renewal_year, is_locked, unlock_reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contract_id, renewal_year)
		DO UPDATE SET is_locked = EXCLUDED.is_locked, unlock_reason = EXCLUDED.unlock_reason, updated_at = NOW()
		RETURNING `+lockColumns,
		lock.WorkspaceID, lock.ContractID, lock.RenewalYear, lock.IsLocked, stringPtrToPgText(lock.UnlockReason),
	)
	saved, err := scanLock(row)
	if err != nil {
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrContractNotFound
		}
		return nil, err
	}
	return saved, nil
}

// scanLock leaves pgx.ErrNoRows unmapped; Get turns it into a placeholder
func scanLock(row rowScanner) (*domain.AdjustmentLock, error) {
	var (
		l            domain.AdjustmentLock
		unlockReason pgtype.Text
		updatedAt    pgtype.Timestamptz
	)
	if err := row.Scan(&l.ID, &l.WorkspaceID, &l.ContractID, &l.RenewalYear, &l.IsLocked, &unlockReason, &updatedAt); err != nil {
		return nil, err
	}
	l.UnlockReason = pgTextToStringPtr(unlockReason)
	l.UpdatedAt = updatedAt.Time
	return &l, nil
}
