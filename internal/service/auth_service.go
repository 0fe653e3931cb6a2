package service

import (
	"errors"
	"strings"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AuthService binds Auth0 identities to workspaces
type AuthService struct {
	workspaceRepo  domain.WorkspaceRepository
	defaultTaxRate decimal.Decimal
}

// NewAuthService creates a new AuthService. New workspaces start with defaultTaxRate.
func NewAuthService(workspaceRepo domain.WorkspaceRepository, defaultTaxRate decimal.Decimal) *AuthService {
	return &AuthService{
		workspaceRepo:  workspaceRepo,
		defaultTaxRate: defaultTaxRate,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	Workspace      *domain.Workspace
	IsNewWorkspace bool
}

// AuthenticateUser handles the authentication flow after the Auth0 callback.
// The workspace is created on first login.
func (s *AuthService) AuthenticateUser(auth0ID, email string, name *string) (*AuthResult, error) {
	if strings.TrimSpace(auth0ID) == "" {
		return nil, domain.ErrUnauthorized
	}

	workspace, err := s.workspaceRepo.GetByAuth0ID(auth0ID)
	if err == nil {
		log.Info().Int32("workspace_id", workspace.ID).Msg("Existing workspace authenticated")
		return &AuthResult{Workspace: workspace}, nil
	}
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to get workspace")
		return nil, err
	}

	workspace, err = s.createDefaultWorkspace(auth0ID, email, name)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create default workspace")
		return nil, err
	}
	log.Info().Int32("workspace_id", workspace.ID).Msg("Created workspace for new account")
	return &AuthResult{Workspace: workspace, IsNewWorkspace: true}, nil
}

// GetWorkspaceByAuth0ID retrieves the workspace bound to an Auth0 ID
func (s *AuthService) GetWorkspaceByAuth0ID(auth0ID string) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByAuth0ID(auth0ID)
}

// GetWorkspaceByID retrieves a workspace by its ID
func (s *AuthService) GetWorkspaceByID(id int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(id)
}

func (s *AuthService) createDefaultWorkspace(auth0ID, email string, name *string) (*domain.Workspace, error) {
	workspaceName := "Minha empresa"
	if name != nil && strings.TrimSpace(*name) != "" {
		workspaceName = strings.TrimSpace(*name)
	}
	return s.workspaceRepo.Create(&domain.Workspace{
		Auth0ID:        auth0ID,
		OwnerEmail:     email,
		OwnerName:      name,
		Name:           workspaceName,
		TaxRatePercent: s.defaultTaxRate,
	})
}
