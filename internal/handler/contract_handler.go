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

const dateLayout = "2006-01-02"

// ContractHandler handles contract registration, import and renewal lookups
type ContractHandler struct {
	contractService   *service.ContractService
	adjustmentService *service.AdjustmentService
	addonService      *service.AddonService
	now               func() time.Time
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *service.ContractService, adjustmentService *service.AdjustmentService, addonService *service.AddonService) *ContractHandler {
	return &ContractHandler{
		contractService:   contractService,
		adjustmentService: adjustmentService,
		addonService:      addonService,
		now:               time.Now,
	}
}

// ContractRequest is the body of create and update. baseValue accepts "1.234,56" or "1234.56";
// dates accept YYYY-MM-DD or DD/MM/YYYY.
type ContractRequest struct {
	ContractorName     string  `json:"contractorName"`
	ContractorDocument string  `json:"contractorDocument"`
	PlanType           string  `json:"planType"`
	BaseValue          string  `json:"baseValue"`
	StartDate          string  `json:"startDate"`
	TrialDays          int32   `json:"trialDays"`
	RenewalDate        *string `json:"renewalDate,omitempty"`
	Status             *string `json:"status,omitempty"`
	EmployeeCount      int32   `json:"employeeCount"`
	CNPJCount          int32   `json:"cnpjCount"`
	CostPlanID         *int32  `json:"costPlanId,omitempty"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID                 int32   `json:"id"`
	ContractorName     string  `json:"contractorName"`
	ContractorDocument string  `json:"contractorDocument"`
	PlanType           string  `json:"planType"`
	BaseValue          string  `json:"baseValue"`
	StartDate          string  `json:"startDate"`
	TrialDays          int32   `json:"trialDays"`
	BillingStart       string  `json:"billingStart"`
	RenewalDate        *string `json:"renewalDate,omitempty"`
	Status             string  `json:"status"`
	EmployeeCount      int32   `json:"employeeCount"`
	CNPJCount          int32   `json:"cnpjCount"`
	CostPlanID         *int32  `json:"costPlanId,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// ImportContractsRequest is the body of a bulk import
type ImportContractsRequest struct {
	Records []service.ContractRecord `json:"records"`
}

// ImportContractsResponse reports an import run
type ImportContractsResponse struct {
	Imported []ContractResponse    `json:"imported"`
	Skipped  []service.ImportError `json:"skipped"`
}

func (r ContractRequest) toInput() service.ContractInput {
	input := service.ContractInput{
		ContractorName:     r.ContractorName,
		ContractorDocument: r.ContractorDocument,
		PlanType:           domain.PlanType(r.PlanType),
		BaseValue:          r.BaseValue,
		StartDate:          r.StartDate,
		TrialDays:          r.TrialDays,
		RenewalDate:        r.RenewalDate,
		EmployeeCount:      r.EmployeeCount,
		CNPJCount:          r.CNPJCount,
		CostPlanID:         r.CostPlanID,
	}
	if r.Status != nil {
		status := domain.ContractStatus(*r.Status)
		input.Status = &status
	}
	return input
}

// CreateContract handles POST /api/v1/contracts
func (h *ContractHandler) CreateContract(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req ContractRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	contract, err := h.contractService.CreateContract(workspaceID, req.toInput())
	if err != nil {
		return respondError(c, err, "create contract")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("contract_id", contract.ID).Msg("Contract created")
	return c.JSON(http.StatusCreated, toContractResponse(contract))
}

// GetContracts handles GET /api/v1/contracts?status=&planType=&search=
func (h *ContractHandler) GetContracts(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filter := domain.ContractFilter{Search: c.QueryParam("search")}
	if raw := c.QueryParam("status"); raw != "" {
		status := domain.ContractStatus(raw)
		if status != domain.ContractActive && status != domain.ContractInactive {
			return respondError(c, domain.ErrInvalidContractStatus, "list contracts")
		}
		filter.Status = &status
	}
	if raw := c.QueryParam("planType"); raw != "" {
		plan := domain.PlanType(raw)
		if !plan.IsValid() {
			return respondError(c, domain.ErrInvalidPlanType, "list contracts")
		}
		filter.PlanType = &plan
	}

	contracts, err := h.contractService.ListContracts(workspaceID, filter)
	if err != nil {
		return respondError(c, err, "list contracts")
	}

	response := make([]ContractResponse, len(contracts))
	for i, contract := range contracts {
		response[i] = toContractResponse(contract)
	}
	return c.JSON(http.StatusOK, response)
}

// GetContract handles GET /api/v1/contracts/:id
func (h *ContractHandler) GetContract(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	contract, err := h.contractService.GetContract(workspaceID, id)
	if err != nil {
		return respondError(c, err, "get contract")
	}
	return c.JSON(http.StatusOK, toContractResponse(contract))
}

// UpdateContract handles PUT /api/v1/contracts/:id
func (h *ContractHandler) UpdateContract(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	var req ContractRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	contract, err := h.contractService.UpdateContract(workspaceID, id, req.toInput())
	if err != nil {
		return respondError(c, err, "update contract")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("contract_id", id).Msg("Contract updated")
	return c.JSON(http.StatusOK, toContractResponse(contract))
}

// DeleteContract handles DELETE /api/v1/contracts/:id. Adjustments, locks, addons and the
// bank slip cost go with it.
func (h *ContractHandler) DeleteContract(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	if err := h.contractService.DeleteContract(workspaceID, id); err != nil {
		return respondError(c, err, "delete contract")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("contract_id", id).Msg("Contract deleted")
	return c.NoContent(http.StatusNoContent)
}

// ImportContracts handles POST /api/v1/contracts/import. Bad rows are skipped and reported.
func (h *ContractHandler) ImportContracts(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req ImportContractsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if len(req.Records) == 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "records", Message: "At least one record is required"},
		})
	}

	result, err := h.contractService.ImportContracts(workspaceID, req.Records)
	if err != nil {
		return respondError(c, err, "import contracts")
	}

	response := ImportContractsResponse{
		Imported: make([]ContractResponse, len(result.Imported)),
		Skipped:  result.Skipped,
	}
	for i, contract := range result.Imported {
		response.Imported[i] = toContractResponse(contract)
	}

	log.Info().Int32("workspace_id", workspaceID).Int("imported", len(result.Imported)).Int("skipped", len(result.Skipped)).Msg("Contracts imported")
	return c.JSON(http.StatusOK, response)
}

// GetUpcomingRenewals handles GET /api/v1/contracts/renewals?days=30
func (h *ContractHandler) GetUpcomingRenewals(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 366 {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "days", Message: "Must be between 0 and 366"},
			})
		}
		days = n
	}

	contracts, err := h.contractService.UpcomingRenewals(workspaceID, h.now(), days)
	if err != nil {
		return respondError(c, err, "list upcoming renewals")
	}

	response := make([]ContractResponse, len(contracts))
	for i, contract := range contracts {
		response[i] = toContractResponse(contract)
	}
	return c.JSON(http.StatusOK, response)
}

// RenewalDateResponse is the renewal anniversary of a contract in a year
type RenewalDateResponse struct {
	ContractID  int32  `json:"contractId"`
	Year        int    `json:"year"`
	RenewalDate string `json:"renewalDate"`
}

// GetRenewalDate handles GET /api/v1/contracts/:id/renewal-date?year=2026
func (h *ContractHandler) GetRenewalDate(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	year := h.now().Year()
	if raw := c.QueryParam("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(c, domain.ErrInvalidRenewalYear, "get renewal date")
		}
		year = n
	}

	date, err := h.contractService.NextRenewalDate(workspaceID, id, year)
	if err != nil {
		return respondError(c, err, "get renewal date")
	}
	return c.JSON(http.StatusOK, RenewalDateResponse{
		ContractID:  id,
		Year:        year,
		RenewalDate: date.Format(dateLayout),
	})
}

// EffectiveValueResponse is a contract's value after folding its adjustments up to a date
type EffectiveValueResponse struct {
	ContractID     int32  `json:"contractId"`
	AsOf           string `json:"asOf"`
	EffectiveValue string `json:"effectiveValue"`
}

// GetEffectiveValue handles GET /api/v1/contracts/:id/effective-value?date=2025-06-30
func (h *ContractHandler) GetEffectiveValue(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	asOf := domain.DateOnly(h.now())
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "date", Message: "Must be YYYY-MM-DD or DD/MM/YYYY"},
			})
		}
		asOf = parsed
	}

	value, err := h.adjustmentService.ContractEffectiveValue(workspaceID, id, asOf)
	if err != nil {
		return respondError(c, err, "resolve effective value")
	}
	return c.JSON(http.StatusOK, EffectiveValueResponse{
		ContractID:     id,
		AsOf:           asOf.Format(dateLayout),
		EffectiveValue: value.StringFixed(2),
	})
}

// ValueVariationResponse classifies how a contract's value moved in a month
type ValueVariationResponse struct {
	ContractID int32  `json:"contractId"`
	Month      string `json:"month"`
	Variation  string `json:"variation"`
}

// GetValueVariation handles GET /api/v1/contracts/:id/value-variation?month=2025-03
func (h *ContractHandler) GetValueVariation(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}
	month, err := monthQueryParam(c, "month", h.now())
	if err != nil {
		return respondError(c, err, "classify value variation")
	}

	variation, err := h.addonService.ClassifyValueVariation(workspaceID, id, month)
	if err != nil {
		return respondError(c, err, "classify value variation")
	}
	return c.JSON(http.StatusOK, ValueVariationResponse{
		ContractID: id,
		Month:      month.String(),
		Variation:  string(variation),
	})
}

func toContractResponse(contract *domain.Contract) ContractResponse {
	resp := ContractResponse{
		ID:                 contract.ID,
		ContractorName:     contract.ContractorName,
		ContractorDocument: contract.ContractorDocument,
		PlanType:           string(contract.PlanType),
		BaseValue:          contract.BaseValue.StringFixed(2),
		StartDate:          contract.StartDate.Format(dateLayout),
		TrialDays:          contract.TrialDays,
		BillingStart:       contract.BillingStart().Format(dateLayout),
		Status:             string(contract.Status),
		EmployeeCount:      contract.EmployeeCount,
		CNPJCount:          contract.CNPJCount,
		CostPlanID:         contract.CostPlanID,
		CreatedAt:          contract.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          contract.UpdatedAt.Format(time.RFC3339),
	}
	if contract.RenewalDate != nil {
		renewal := contract.RenewalDate.Format(dateLayout)
		resp.RenewalDate = &renewal
	}
	return resp
}
