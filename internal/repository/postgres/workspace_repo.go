package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/domain"
)

const workspaceColumns = `id, auth0_id, owner_email, owner_name, name, tax_rate_percent, logo_path, created_at, updated_at`

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// GetByID retrieves a workspace by its ID
func (r *WorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

// GetByAuth0ID retrieves the workspace owned by an Auth0 identity
func (r *WorkspaceRepository) GetByAuth0ID(auth0ID string) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+workspaceColumns+` FROM workspaces WHERE auth0_id = $1`, auth0ID)
	return scanWorkspace(row)
}

// Create creates a new workspace
func (r *WorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	taxRate, err := decimalToPgNumeric(workspace.TaxRatePercent)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO workspaces (auth0_id, owner_email, owner_name, name, tax_rate_percent, logo_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+workspaceColumns,
		workspace.Auth0ID, workspace.OwnerEmail, stringPtrToPgText(workspace.OwnerName),
		workspace.Name, taxRate, stringPtrToPgText(workspace.LogoPath),
	)
	created, err := scanWorkspace(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return created, nil
}

// Update saves the editable workspace settings
func (r *WorkspaceRepository) Update(workspace *domain.Workspace) (*domain.Workspace, error) {
	taxRate, err := decimalToPgNumeric(workspace.TaxRatePercent)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(), `
		UPDATE workspaces
		SET name = $2, tax_rate_percent = $3, logo_path = $4, owner_email = $5, owner_name = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+workspaceColumns,
		workspace.ID, workspace.Name, taxRate, stringPtrToPgText(workspace.LogoPath),
		workspace.OwnerEmail, stringPtrToPgText(workspace.OwnerName),
	)
	return scanWorkspace(row)
}

// ListIDs returns every workspace ID in ascending order
func (r *WorkspaceRepository) ListIDs() ([]int32, error) {
	rows, err := r.pool.Query(context.Background(), `SELECT id FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int32{}
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanWorkspace(row rowScanner) (*domain.Workspace, error) {
	var (
		w         domain.Workspace
		ownerName pgtype.Text
		taxRate   pgtype.Numeric
		logoPath  pgtype.Text
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&w.ID, &w.Auth0ID, &w.OwnerEmail, &ownerName, &w.Name, &taxRate, &logoPath, &createdAt, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	w.OwnerName = pgTextToStringPtr(ownerName)
	w.TaxRatePercent = pgNumericToDecimal(taxRate)
	w.LogoPath = pgTextToStringPtr(logoPath)
	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time
	return &w, nil
}
