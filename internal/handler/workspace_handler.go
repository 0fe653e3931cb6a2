package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// WorkspaceHandler handles workspace settings and the report logo
type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
	logoService      *service.LogoService
}

// NewWorkspaceHandler creates a new WorkspaceHandler. logoService may be disabled.
func NewWorkspaceHandler(workspaceService *service.WorkspaceService, logoService *service.LogoService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService, logoService: logoService}
}

// WorkspaceResponse represents a workspace in API responses
type WorkspaceResponse struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	TaxRatePercent string `json:"taxRatePercent"`
	HasLogo        bool   `json:"hasLogo"`
	LogoURL        string `json:"logoUrl,omitempty"`
}

// UpdateWorkspaceRequest holds the editable settings; omitted fields are left unchanged
type UpdateWorkspaceRequest struct {
	Name           *string `json:"name,omitempty"`
	TaxRatePercent *string `json:"taxRatePercent,omitempty"`
}

func toWorkspaceResponse(w *domain.Workspace, logoURL string) WorkspaceResponse {
	return WorkspaceResponse{
		ID:             w.ID,
		Name:           w.Name,
		TaxRatePercent: w.TaxRatePercent.StringFixed(2),
		HasLogo:        w.LogoPath != nil,
		LogoURL:        logoURL,
	}
}

func (h *WorkspaceHandler) logoURL(c echo.Context, w *domain.Workspace) string {
	if w.LogoPath == nil || !h.logoService.IsEnabled() {
		return ""
	}
	url, err := h.logoService.LogoURL(c.Request().Context(), w)
	if err != nil {
		log.Warn().Err(err).Int32("workspace_id", w.ID).Msg("Failed to presign logo URL")
		return ""
	}
	return url
}

// GetWorkspace handles GET /api/v1/workspace
func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	workspace, err := h.workspaceService.GetWorkspace(workspaceID)
	if err != nil {
		return respondError(c, err, "get workspace")
	}
	return c.JSON(http.StatusOK, toWorkspaceResponse(workspace, h.logoURL(c, workspace)))
}

// UpdateWorkspace handles PUT /api/v1/workspace. Changing the tax rate re-prices every analysis.
func (h *WorkspaceHandler) UpdateWorkspace(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req UpdateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateSettingsInput{Name: req.Name}
	if req.TaxRatePercent != nil {
		rate, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(*req.TaxRatePercent), ",", "."))
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "taxRatePercent", Message: "Must be a number between 0 and 100"},
			})
		}
		input.TaxRatePercent = &rate
	}

	workspace, err := h.workspaceService.UpdateSettings(workspaceID, input)
	if err != nil {
		return respondError(c, err, "update workspace")
	}

	log.Info().Int32("workspace_id", workspaceID).Msg("Workspace settings updated")
	return c.JSON(http.StatusOK, toWorkspaceResponse(workspace, h.logoURL(c, workspace)))
}

// UploadLogo handles POST /api/v1/workspace/logo (multipart field "file")
func (h *WorkspaceHandler) UploadLogo(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	if !h.logoService.IsEnabled() {
		return NewServiceUnavailableError(c, "Logo uploads are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > service.MaxLogoSize {
		return respondError(c, service.ErrLogoTooLarge, "upload logo")
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to open uploaded logo")
		return NewInternalError(c, "Failed to read file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxLogoSize+1))
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to read uploaded logo")
		return NewInternalError(c, "Failed to read file")
	}

	workspace, err := h.logoService.UploadLogo(c.Request().Context(), workspaceID, data, file.Filename)
	if err != nil {
		return respondError(c, err, "upload logo")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("size", len(data)).Msg("Logo uploaded")
	return c.JSON(http.StatusOK, toWorkspaceResponse(workspace, h.logoURL(c, workspace)))
}

// DeleteLogo handles DELETE /api/v1/workspace/logo
func (h *WorkspaceHandler) DeleteLogo(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	if !h.logoService.IsEnabled() {
		return NewServiceUnavailableError(c, "Logo uploads are disabled (storage not configured)")
	}

	if _, err := h.logoService.DeleteLogo(c.Request().Context(), workspaceID); err != nil {
		return respondError(c, err, "delete logo")
	}
	return c.NoContent(http.StatusNoContent)
}
