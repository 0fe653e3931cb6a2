package service

import (
	"strings"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// WorkspaceService handles workspace settings
type WorkspaceService struct {
	workspaceRepo  domain.WorkspaceRepository
	eventPublisher websocket.EventPublisher
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(workspaceRepo domain.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{workspaceRepo: workspaceRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *WorkspaceService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// GetWorkspace retrieves the workspace
func (s *WorkspaceService) GetWorkspace(workspaceID int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(workspaceID)
}

// UpdateSettingsInput holds the editable workspace settings; nil fields are left unchanged
type UpdateSettingsInput struct {
	Name           *string
	TaxRatePercent *decimal.Decimal
}

// UpdateSettings changes the workspace name and/or tax rate
func (s *WorkspaceService) UpdateSettings(workspaceID int32, input UpdateSettingsInput) (*domain.Workspace, error) {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return nil, err
	}

	updated := *workspace
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxNameLength {
			return nil, domain.ErrNameTooLong
		}
		updated.Name = name
	}
	if input.TaxRatePercent != nil {
		if err := domain.ValidateTaxRate(*input.TaxRatePercent); err != nil {
			return nil, err
		}
		updated.TaxRatePercent = *input.TaxRatePercent
	}

	saved, err := s.workspaceRepo.Update(&updated)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil && input.TaxRatePercent != nil {
		s.eventPublisher.Publish(workspaceID, websocket.CostSettingsUpdated(map[string]interface{}{
			"kind": "tax_rate",
			"data": saved.TaxRatePercent.StringFixed(2),
		}))
	}
	return saved, nil
}

// SetLogoPath records (or clears, with nil) the object path of the workspace logo
func (s *WorkspaceService) SetLogoPath(workspaceID int32, path *string) (*domain.Workspace, error) {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return nil, err
	}
	updated := *workspace
	updated.LogoPath = path
	return s.workspaceRepo.Update(&updated)
}
