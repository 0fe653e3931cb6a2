package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const addonColumns = `id, workspace_id, contract_id, type, description, previous_value, new_value,
	requested_by, request_date, plan_change_details, created_at`

// AddonRepository implements domain.AddonRepository using PostgreSQL
type AddonRepository struct {
	pool *pgxpool.Pool
}

// NewAddonRepository creates a new AddonRepository
func NewAddonRepository(pool *pgxpool.Pool) *AddonRepository {
	return &AddonRepository{pool: pool}
}

// Create stores a new addon together with its effects. The lock-guarded adjustment insert, the
// plan terms update and the addon insert share one transaction.
func (r *AddonRepository) Create(addon *domain.Addon, effects domain.AddonEffects) (*domain.Addon, error) {
	ctx := context.Background()
	var details []byte
	if addon.PlanChangeDetails != nil {
		encoded, err := json.Marshal(addon.PlanChangeDetails)
		if err != nil {
			return nil, fmt.Errorf("failed to encode plan change details: %w", err)
		}
		details = encoded
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if effects.Adjustment != nil {
		created, err := insertAdjustmentIfUnlocked(ctx, tx, effects.Adjustment, effects.Adjustment.RenewalYear())
		if err != nil {
			return nil, err
		}
		*effects.Adjustment = *created
	}
	if effects.PlanTerms != nil {
		updated, err := updatePlanTerms(ctx, tx, effects.PlanTerms)
		if err != nil {
			return nil, err
		}
		*effects.PlanTerms = *updated
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO addons (workspace_id, contract_id, type, description, previous_value, new_value,
			requested_by, request_date, plan_change_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+addonColumns,
		addon.WorkspaceID, addon.ContractID, string(addon.Type), addon.Description,
		stringPtrToPgText(addon.PreviousValue), addon.NewValue, addon.RequestedBy,
		timeToPgDate(addon.RequestDate), details,
	)
	created, err := scanAddon(row)
	if err != nil {
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrContractNotFound
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit addon: %w", err)
	}
	return created, nil
}

// GetByID retrieves an addon within a workspace
func (r *AddonRepository) GetByID(workspaceID int32, id int32) (*domain.Addon, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+addonColumns+` FROM addons WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanAddon(row)
}

// ListByContract returns a contract's addons ordered by request date
func (r *AddonRepository) ListByContract(workspaceID int32, contractID int32) ([]*domain.Addon, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT `+addonColumns+` FROM addons
		WHERE workspace_id = $1 AND contract_id = $2
		ORDER BY request_date, id`, workspaceID, contractID)
	if err != nil {
		return nil, err
	}
	return collectAddons(rows)
}

// ListByWorkspace returns every addon in the workspace
func (r *AddonRepository) ListByWorkspace(workspaceID int32) ([]*domain.Addon, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT `+addonColumns+` FROM addons
		WHERE workspace_id = $1
		ORDER BY contract_id, request_date, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	return collectAddons(rows)
}

// Delete removes an addon
func (r *AddonRepository) Delete(workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM addons WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAddonNotFound
	}
	return nil
}

func collectAddons(rows pgx.Rows) ([]*domain.Addon, error) {
	defer rows.Close()
	addons := []*domain.Addon{}
	for rows.Next() {
		addon, err := scanAddon(rows)
		if err != nil {
			return nil, err
		}
		addons = append(addons, addon)
	}
	return addons, rows.Err()
}

func scanAddon(row rowScanner) (*domain.Addon, error) {
	var (
		a             domain.Addon
		addonType     string
		previousValue pgtype.Text
		requestDate   pgtype.Date
		details       []byte
		createdAt     pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.ContractID, &addonType, &a.Description, &previousValue,
		&a.NewValue, &a.RequestedBy, &requestDate, &details, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAddonNotFound
		}
		return nil, err
	}
	a.Type = domain.AddonType(addonType)
	a.PreviousValue = pgTextToStringPtr(previousValue)
	a.RequestDate = pgDateToTime(requestDate)
	a.CreatedAt = createdAt.Time
	if len(details) > 0 {
		var d domain.PlanChangeDetails
		if err := json.Unmarshal(details, &d); err != nil {
			return nil, fmt.Errorf("failed to decode plan change details of addon %d: %w", a.ID, err)
		}
		a.PlanChangeDetails = &d
	}
	return &a, nil
}
