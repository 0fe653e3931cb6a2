package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// AddonHandler handles contract addons
type AddonHandler struct {
	addonService *service.AddonService
}

// NewAddonHandler creates a new AddonHandler
func NewAddonHandler(addonService *service.AddonService) *AddonHandler {
	return &AddonHandler{addonService: addonService}
}

// CreateAddonRequest is the body of POST /contracts/:id/addons. Values are kept as entered.
type CreateAddonRequest struct {
	Type              string                    `json:"type"`
	Description       string                    `json:"description"`
	PreviousValue     *string                   `json:"previousValue,omitempty"`
	NewValue          string                    `json:"newValue"`
	RequestedBy       string                    `json:"requestedBy"`
	RequestDate       string                    `json:"requestDate"`
	PlanChangeDetails *domain.PlanChangeDetails `json:"planChangeDetails,omitempty"`
}

// AddonResponse represents an addon in API responses
type AddonResponse struct {
	ID                int32                     `json:"id"`
	ContractID        int32                     `json:"contractId"`
	Type              string                    `json:"type"`
	Description       string                    `json:"description"`
	PreviousValue     *string                   `json:"previousValue,omitempty"`
	NewValue          string                    `json:"newValue"`
	RequestedBy       string                    `json:"requestedBy"`
	RequestDate       string                    `json:"requestDate"`
	CountsAsRevenue   bool                      `json:"countsAsRevenue"`
	PlanChangeDetails *domain.PlanChangeDetails `json:"planChangeDetails,omitempty"`
	CreatedAt         string                    `json:"createdAt"`
}

// AddonRevenueResponse is the recurring revenue a contract's addons add
type AddonRevenueResponse struct {
	ContractID   int32  `json:"contractId"`
	AddonRevenue string `json:"addonRevenue"`
}

// CreateAddon handles POST /api/v1/contracts/:id/addons
func (h *AddonHandler) CreateAddon(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	var req CreateAddonRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	addon, err := h.addonService.CreateAddon(workspaceID, service.CreateAddonInput{
		ContractID:        contractID,
		Type:              domain.AddonType(req.Type),
		Description:       req.Description,
		PreviousValue:     req.PreviousValue,
		NewValue:          req.NewValue,
		RequestedBy:       req.RequestedBy,
		RequestDate:       req.RequestDate,
		PlanChangeDetails: req.PlanChangeDetails,
	})
	if err != nil {
		return respondError(c, err, "create addon")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("contract_id", contractID).Int32("addon_id", addon.ID).Str("type", string(addon.Type)).Msg("Addon created")
	return c.JSON(http.StatusCreated, toAddonResponse(addon))
}

// GetAddons handles GET /api/v1/contracts/:id/addons
func (h *AddonHandler) GetAddons(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	addons, err := h.addonService.ListAddons(workspaceID, contractID)
	if err != nil {
		return respondError(c, err, "list addons")
	}

	response := make([]AddonResponse, len(addons))
	for i, addon := range addons {
		response[i] = toAddonResponse(addon)
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteAddon handles DELETE /api/v1/contracts/:id/addons/:addonId
func (h *AddonHandler) DeleteAddon(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}
	addonID, ok := parseIDParam(c, "addonId")
	if !ok {
		return NewValidationError(c, "Invalid addon ID", nil)
	}

	if err := h.addonService.DeleteAddon(workspaceID, contractID, addonID); err != nil {
		return respondError(c, err, "delete addon")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("contract_id", contractID).Int32("addon_id", addonID).Msg("Addon deleted")
	return c.NoContent(http.StatusNoContent)
}

// GetAddonRevenue handles GET /api/v1/contracts/:id/addons/revenue
func (h *AddonHandler) GetAddonRevenue(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	total, err := h.addonService.RevenueContribution(workspaceID, contractID)
	if err != nil {
		return respondError(c, err, "sum addon revenue")
	}
	return c.JSON(http.StatusOK, AddonRevenueResponse{
		ContractID:   contractID,
		AddonRevenue: total.StringFixed(2),
	})
}

func toAddonResponse(a *domain.Addon) AddonResponse {
	return AddonResponse{
		ID:                a.ID,
		ContractID:        a.ContractID,
		Type:              string(a.Type),
		Description:       a.Description,
		PreviousValue:     a.PreviousValue,
		NewValue:          a.NewValue,
		RequestedBy:       a.RequestedBy,
		RequestDate:       a.RequestDate.Format(dateLayout),
		CountsAsRevenue:   a.CountsTowardRevenue(),
		PlanChangeDetails: a.PlanChangeDetails,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
}
