package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// AdjustmentHandler exposes the value adjustment ledger and its renewal locks
type AdjustmentHandler struct {
	adjustmentService *service.AdjustmentService
}

// NewAdjustmentHandler creates a new AdjustmentHandler
func NewAdjustmentHandler(adjustmentService *service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentService: adjustmentService}
}

// CreateAdjustmentRequest is the body of create and preview. previousValue defaults to the
// contract's effective value on the day before effectiveDate.
type CreateAdjustmentRequest struct {
	Kind          string  `json:"kind"`
	Magnitude     string  `json:"magnitude"`
	PreviousValue *string `json:"previousValue,omitempty"`
	EffectiveDate string  `json:"effectiveDate"`
	Notes         *string `json:"notes,omitempty"`
}

// AdjustmentResponse represents an adjustment in API responses
type AdjustmentResponse struct {
	ID            int32   `json:"id"`
	ContractID    int32   `json:"contractId"`
	Kind          string  `json:"kind"`
	Magnitude     string  `json:"magnitude"`
	PreviousValue string  `json:"previousValue"`
	NewValue      string  `json:"newValue"`
	EffectiveDate string  `json:"effectiveDate"`
	RenewalYear   int     `json:"renewalYear"`
	Notes         *string `json:"notes,omitempty"`
	Source        string  `json:"source"`
	CreatedAt     string  `json:"createdAt"`
}

// AdjustmentPreviewResponse is what a create would write
type AdjustmentPreviewResponse struct {
	ContractID    int32  `json:"contractId"`
	Kind          string `json:"kind"`
	PreviousValue string `json:"previousValue"`
	NewValue      string `json:"newValue"`
	EffectiveDate string `json:"effectiveDate"`
	RenewalYear   int    `json:"renewalYear"`
	Locked        bool   `json:"locked"`
}

// SetLockRequest toggles a (contract, year) lock. Unlocking requires a reason.
type SetLockRequest struct {
	Locked bool    `json:"locked"`
	Reason *string `json:"reason,omitempty"`
}

// LockResponse represents an adjustment lock in API responses
type LockResponse struct {
	ContractID   int32   `json:"contractId"`
	RenewalYear  int32   `json:"renewalYear"`
	IsLocked     bool    `json:"isLocked"`
	UnlockReason *string `json:"unlockReason,omitempty"`
	UpdatedAt    *string `json:"updatedAt,omitempty"`
}

// BulkAdjustRequest applies one reajuste to several contracts on their renewal dates in year
type BulkAdjustRequest struct {
	ContractIDs []int32 `json:"contractIds"`
	Kind        string  `json:"kind"`
	Magnitude   string  `json:"magnitude"`
	Year        int     `json:"year"`
	Notes       *string `json:"notes,omitempty"`
}

// BulkAdjustOutcomeResponse is the result of a bulk run for one contract
type BulkAdjustOutcomeResponse struct {
	ContractID int32               `json:"contractId"`
	Outcome    string              `json:"outcome"`
	Adjustment *AdjustmentResponse `json:"adjustment,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// BulkAdjustResponse summarizes a bulk run
type BulkAdjustResponse struct {
	Year     int                         `json:"year"`
	Applied  int                         `json:"applied"`
	Locked   int                         `json:"locked"`
	Failed   int                         `json:"failed"`
	Outcomes []BulkAdjustOutcomeResponse `json:"outcomes"`
}

func (r CreateAdjustmentRequest) toInput(contractID int32) service.CreateAdjustmentInput {
	return service.CreateAdjustmentInput{
		ContractID:    contractID,
		Kind:          domain.AdjustmentKind(r.Kind),
		Magnitude:     r.Magnitude,
		PreviousValue: r.PreviousValue,
		EffectiveDate: r.EffectiveDate,
		Notes:         r.Notes,
	}
}

// CreateAdjustment handles POST /api/v1/contracts/:id/adjustments.
// A locked renewal year answers 423.
func (h *AdjustmentHandler) CreateAdjustment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	var req CreateAdjustmentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	adjustment, err := h.adjustmentService.CreateAdjustment(workspaceID, req.toInput(contractID))
	if err != nil {
		return respondError(c, err, "create adjustment")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("contract_id", contractID).
		Int32("adjustment_id", adjustment.ID).
		Str("new_value", adjustment.NewValue.StringFixed(2)).
		Msg("Adjustment created")
	return c.JSON(http.StatusCreated, toAdjustmentResponse(adjustment))
}

// PreviewAdjustment handles POST /api/v1/contracts/:id/adjustments/preview
func (h *AdjustmentHandler) PreviewAdjustment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	var req CreateAdjustmentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	preview, err := h.adjustmentService.PreviewAdjustment(workspaceID, req.toInput(contractID))
	if err != nil {
		return respondError(c, err, "preview adjustment")
	}
	return c.JSON(http.StatusOK, AdjustmentPreviewResponse{
		ContractID:    preview.ContractID,
		Kind:          string(preview.Kind),
		PreviousValue: preview.PreviousValue.StringFixed(2),
		NewValue:      preview.NewValue.StringFixed(2),
		EffectiveDate: preview.EffectiveDate.Format(dateLayout),
		RenewalYear:   preview.RenewalYear,
		Locked:        preview.Locked,
	})
}

// GetAdjustments handles GET /api/v1/contracts/:id/adjustments
func (h *AdjustmentHandler) GetAdjustments(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	adjustments, err := h.adjustmentService.ListAdjustments(workspaceID, contractID)
	if err != nil {
		return respondError(c, err, "list adjustments")
	}

	response := make([]AdjustmentResponse, len(adjustments))
	for i, adjustment := range adjustments {
		response[i] = toAdjustmentResponse(adjustment)
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteAdjustment handles DELETE /api/v1/contracts/:id/adjustments/:adjustmentId
func (h *AdjustmentHandler) DeleteAdjustment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}
	adjustmentID, ok := parseIDParam(c, "adjustmentId")
	if !ok {
		return NewValidationError(c, "Invalid adjustment ID", nil)
	}

	if err := h.adjustmentService.DeleteAdjustment(workspaceID, contractID, adjustmentID); err != nil {
		return respondError(c, err, "delete adjustment")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("contract_id", contractID).Int32("adjustment_id", adjustmentID).Msg("Adjustment deleted")
	return c.NoContent(http.StatusNoContent)
}

// GetLocks handles GET /api/v1/contracts/:id/locks
func (h *AdjustmentHandler) GetLocks(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	locks, err := h.adjustmentService.ListLocks(workspaceID, contractID)
	if err != nil {
		return respondError(c, err, "list locks")
	}

	response := make([]LockResponse, len(locks))
	for i, lock := range locks {
		response[i] = toLockResponse(lock)
	}
	return c.JSON(http.StatusOK, response)
}

// GetLock handles GET /api/v1/contracts/:id/locks/:year. A year never locked reads as unlocked.
func (h *AdjustmentHandler) GetLock(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return respondError(c, domain.ErrInvalidRenewalYear, "get lock")
	}

	lock, err := h.adjustmentService.GetLock(workspaceID, contractID, year)
	if err != nil {
		return respondError(c, err, "get lock")
	}
	return c.JSON(http.StatusOK, toLockResponse(lock))
}

// SetLock handles PUT /api/v1/contracts/:id/locks/:year
func (h *AdjustmentHandler) SetLock(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return respondError(c, domain.ErrInvalidRenewalYear, "set lock")
	}

	var req SetLockRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	lock, err := h.adjustmentService.SetLock(workspaceID, service.SetLockInput{
		ContractID: contractID,
		Year:       year,
		Locked:     req.Locked,
		Reason:     req.Reason,
	})
	if err != nil {
		return respondError(c, err, "set lock")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("contract_id", contractID).Int("year", year).Bool("locked", lock.IsLocked).Msg("Adjustment lock updated")
	return c.JSON(http.StatusOK, toLockResponse(lock))
}

// BulkAdjust handles POST /api/v1/adjustments/bulk. Locked and failing contracts are reported
// per contract; the request itself succeeds.
func (h *AdjustmentHandler) BulkAdjust(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req BulkAdjustRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if len(req.ContractIDs) == 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "contractIds", Message: "At least one contract is required"},
		})
	}

	result, err := h.adjustmentService.BulkAdjust(workspaceID, service.BulkAdjustInput{
		ContractIDs: req.ContractIDs,
		Kind:        domain.AdjustmentKind(req.Kind),
		Magnitude:   req.Magnitude,
		Year:        req.Year,
		Notes:       req.Notes,
	})
	if err != nil {
		return respondError(c, err, "apply bulk adjustment")
	}

	response := BulkAdjustResponse{
		Year:     result.Year,
		Applied:  result.Applied,
		Locked:   result.Locked,
		Failed:   result.Failed,
		Outcomes: make([]BulkAdjustOutcomeResponse, len(result.Outcomes)),
	}
	for i, outcome := range result.Outcomes {
		response.Outcomes[i] = BulkAdjustOutcomeResponse{
			ContractID: outcome.ContractID,
			Outcome:    outcome.Outcome,
			Error:      outcome.Error,
		}
		if outcome.Adjustment != nil {
			adj := toAdjustmentResponse(outcome.Adjustment)
			response.Outcomes[i].Adjustment = &adj
		}
	}
	return c.JSON(http.StatusOK, response)
}

func toAdjustmentResponse(a *domain.ValueAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:            a.ID,
		ContractID:    a.ContractID,
		Kind:          string(a.Kind),
		Magnitude:     a.Magnitude.String(),
		PreviousValue: a.PreviousValue.StringFixed(2),
		NewValue:      a.NewValue.StringFixed(2),
		EffectiveDate: a.EffectiveDate.Format(dateLayout),
		RenewalYear:   a.RenewalYear(),
		Notes:         a.Notes,
		Source:        string(a.Source),
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func toLockResponse(l *domain.AdjustmentLock) LockResponse {
	resp := LockResponse{
		ContractID:   l.ContractID,
		RenewalYear:  l.RenewalYear,
		IsLocked:     l.IsLocked,
		UnlockReason: l.UnlockReason,
	}
	if !l.UpdatedAt.IsZero() {
		updated := l.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	return resp
}
