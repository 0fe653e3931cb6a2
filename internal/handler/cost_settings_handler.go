package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CostSettingsHandler handles license cost plans, fixed company costs and bank slip fees
type CostSettingsHandler struct {
	costSettingsService *service.CostSettingsService
}

// NewCostSettingsHandler creates a new CostSettingsHandler
func NewCostSettingsHandler(costSettingsService *service.CostSettingsService) *CostSettingsHandler {
	return &CostSettingsHandler{costSettingsService: costSettingsService}
}

// CostPlanRequest is the body of cost plan create and update. Amounts accept either decimal separator.
type CostPlanRequest struct {
	Name                           string  `json:"name"`
	MaxEmployees                   int32   `json:"maxEmployees"`
	MaxCNPJs                       int32   `json:"maxCnpjs"`
	BaseLicenseCost                string  `json:"baseLicenseCost"`
	BillingType                    string  `json:"billingType"`
	ExemptionPeriodMonths          *int32  `json:"exemptionPeriodMonths,omitempty"`
	EarlyPaymentDiscountPercentage string  `json:"earlyPaymentDiscountPercentage"`
	ExtraEmployeeUnitCost          *string `json:"extraEmployeeUnitCost,omitempty"`
	ExtraCNPJUnitCost              *string `json:"extraCnpjUnitCost,omitempty"`
}

// CostPlanResponse represents a cost plan in API responses
type CostPlanResponse struct {
	ID                             int32  `json:"id"`
	Name                           string `json:"name"`
	MaxEmployees                   int32  `json:"maxEmployees"`
	MaxCNPJs                       int32  `json:"maxCnpjs"`
	BaseLicenseCost                string `json:"baseLicenseCost"`
	MonthlyLicenseCost             string `json:"monthlyLicenseCost"`
	BillingType                    string `json:"billingType"`
	ExemptionPeriodMonths          int32  `json:"exemptionPeriodMonths"`
	EarlyPaymentDiscountPercentage string `json:"earlyPaymentDiscountPercentage"`
	ExtraEmployeeUnitCost          string `json:"extraEmployeeUnitCost"`
	ExtraCNPJUnitCost              string `json:"extraCnpjUnitCost"`
	UpdatedAt                      string `json:"updatedAt"`
}

// CompanyCostRequest is the body of company cost create and update
type CompanyCostRequest struct {
	Description   string `json:"description"`
	Category      string `json:"category"`
	MonthlyAmount string `json:"monthlyAmount"`
	IsActive      *bool  `json:"isActive,omitempty"`
}

// CompanyCostResponse represents a fixed company cost in API responses
type CompanyCostResponse struct {
	ID            int32  `json:"id"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	MonthlyAmount string `json:"monthlyAmount"`
	IsActive      bool   `json:"isActive"`
	UpdatedAt     string `json:"updatedAt"`
}

// CompanyCostListResponse lists fixed costs with the total of the active ones
type CompanyCostListResponse struct {
	Costs       []CompanyCostResponse `json:"costs"`
	ActiveTotal string                `json:"activeTotal"`
}

// BankSlipCostRequest is the body of PUT /contracts/:id/bank-slip-cost
type BankSlipCostRequest struct {
	MonthlyCost       string `json:"monthlyCost"`
	BillingStartMonth int32  `json:"billingStartMonth"`
}

// BankSlipCostResponse represents a contract's bank slip fee
type BankSlipCostResponse struct {
	ContractID        int32  `json:"contractId"`
	MonthlyCost       string `json:"monthlyCost"`
	BillingStartMonth int32  `json:"billingStartMonth"`
	UpdatedAt         string `json:"updatedAt"`
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return domain.ParseMoney(raw)
}

func amountError(c echo.Context, field string) error {
	return NewValidationError(c, "Validation failed", []ValidationError{
		{Field: field, Message: "Must be a valid amount"},
	})
}

// toInput converts the request; a non-empty field names the amount that failed to parse
func (r CostPlanRequest) toInput() (service.CostPlanInput, string) {
	input := service.CostPlanInput{
		Name:                  r.Name,
		MaxEmployees:          r.MaxEmployees,
		MaxCNPJs:              r.MaxCNPJs,
		BillingType:           domain.PlanType(r.BillingType),
		ExemptionPeriodMonths: r.ExemptionPeriodMonths,
	}
	var err error
	if input.BaseLicenseCost, err = parseAmount(r.BaseLicenseCost); err != nil {
		return input, "baseLicenseCost"
	}
	if input.EarlyPaymentDiscountPercentage, err = parseAmount(r.EarlyPaymentDiscountPercentage); err != nil {
		return input, "earlyPaymentDiscountPercentage"
	}
	if r.ExtraEmployeeUnitCost != nil {
		cost, err := parseAmount(*r.ExtraEmployeeUnitCost)
		if err != nil {
			return input, "extraEmployeeUnitCost"
		}
		input.ExtraEmployeeUnitCost = &cost
	}
	if r.ExtraCNPJUnitCost != nil {
		cost, err := parseAmount(*r.ExtraCNPJUnitCost)
		if err != nil {
			return input, "extraCnpjUnitCost"
		}
		input.ExtraCNPJUnitCost = &cost
	}
	return input, ""
}

// CreateCostPlan handles POST /api/v1/cost-plans
func (h *CostSettingsHandler) CreateCostPlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CostPlanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, badField := req.toInput()
	if badField != "" {
		return amountError(c, badField)
	}

	plan, err := h.costSettingsService.CreateCostPlan(workspaceID, input)
	if err != nil {
		return respondError(c, err, "create cost plan")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("cost_plan_id", plan.ID).Msg("Cost plan created")
	return c.JSON(http.StatusCreated, toCostPlanResponse(plan))
}

// GetCostPlans handles GET /api/v1/cost-plans
func (h *CostSettingsHandler) GetCostPlans(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	plans, err := h.costSettingsService.ListCostPlans(workspaceID)
	if err != nil {
		return respondError(c, err, "list cost plans")
	}

	response := make([]CostPlanResponse, len(plans))
	for i, plan := range plans {
		response[i] = toCostPlanResponse(plan)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateCostPlan handles PUT /api/v1/cost-plans/:id
func (h *CostSettingsHandler) UpdateCostPlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid cost plan ID", nil)
	}

	var req CostPlanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, badField := req.toInput()
	if badField != "" {
		return amountError(c, badField)
	}

	plan, err := h.costSettingsService.UpdateCostPlan(workspaceID, id, input)
	if err != nil {
		return respondError(c, err, "update cost plan")
	}
	return c.JSON(http.StatusOK, toCostPlanResponse(plan))
}

// DeleteCostPlan handles DELETE /api/v1/cost-plans/:id. Contracts pinned to the plan fall back to
// automatic tier resolution.
func (h *CostSettingsHandler) DeleteCostPlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid cost plan ID", nil)
	}

	if err := h.costSettingsService.DeleteCostPlan(workspaceID, id); err != nil {
		return respondError(c, err, "delete cost plan")
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateCompanyCost handles POST /api/v1/company-costs
func (h *CostSettingsHandler) CreateCompanyCost(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CompanyCostRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	amount, err := parseAmount(req.MonthlyAmount)
	if err != nil {
		return amountError(c, "monthlyAmount")
	}

	cost, err := h.costSettingsService.CreateCompanyCost(workspaceID, service.CompanyCostInput{
		Description:   req.Description,
		Category:      req.Category,
		MonthlyAmount: amount,
		IsActive:      req.IsActive,
	})
	if err != nil {
		return respondError(c, err, "create company cost")
	}
	return c.JSON(http.StatusCreated, toCompanyCostResponse(cost))
}

// GetCompanyCosts handles GET /api/v1/company-costs
func (h *CostSettingsHandler) GetCompanyCosts(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	list, err := h.costSettingsService.ListCompanyCosts(workspaceID)
	if err != nil {
		return respondError(c, err, "list company costs")
	}

	response := CompanyCostListResponse{
		Costs:       make([]CompanyCostResponse, len(list.Costs)),
		ActiveTotal: list.ActiveTotal.StringFixed(2),
	}
	for i, cost := range list.Costs {
		response.Costs[i] = toCompanyCostResponse(cost)
	}
	return c.JSON(http.StatusOK, response)
}

// UpdateCompanyCost handles PUT /api/v1/company-costs/:id
func (h *CostSettingsHandler) UpdateCompanyCost(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid company cost ID", nil)
	}

	var req CompanyCostRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	amount, err := parseAmount(req.MonthlyAmount)
	if err != nil {
		return amountError(c, "monthlyAmount")
	}

	cost, err := h.costSettingsService.UpdateCompanyCost(workspaceID, id, service.CompanyCostInput{
		Description:   req.Description,
		Category:      req.Category,
		MonthlyAmount: amount,
		IsActive:      req.IsActive,
	})
	if err != nil {
		return respondError(c, err, "update company cost")
	}
	return c.JSON(http.StatusOK, toCompanyCostResponse(cost))
}

// DeleteCompanyCost handles DELETE /api/v1/company-costs/:id
func (h *CostSettingsHandler) DeleteCompanyCost(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid company cost ID", nil)
	}

	if err := h.costSettingsService.DeleteCompanyCost(workspaceID, id); err != nil {
		return respondError(c, err, "delete company cost")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetBankSlipCost handles GET /api/v1/contracts/:id/bank-slip-cost
func (h *CostSettingsHandler) GetBankSlipCost(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	cost, err := h.costSettingsService.GetBankSlipCost(workspaceID, contractID)
	if err != nil {
		return respondError(c, err, "get bank slip cost")
	}
	return c.JSON(http.StatusOK, toBankSlipCostResponse(cost))
}

// SetBankSlipCost handles PUT /api/v1/contracts/:id/bank-slip-cost
func (h *CostSettingsHandler) SetBankSlipCost(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	var req BankSlipCostRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	monthly, err := parseAmount(req.MonthlyCost)
	if err != nil {
		return amountError(c, "monthlyCost")
	}

	cost, err := h.costSettingsService.SetBankSlipCost(workspaceID, contractID, monthly, req.BillingStartMonth)
	if err != nil {
		return respondError(c, err, "set bank slip cost")
	}
	return c.JSON(http.StatusOK, toBankSlipCostResponse(cost))
}

// DeleteBankSlipCost handles DELETE /api/v1/contracts/:id/bank-slip-cost
func (h *CostSettingsHandler) DeleteBankSlipCost(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}

	if err := h.costSettingsService.DeleteBankSlipCost(workspaceID, contractID); err != nil {
		return respondError(c, err, "delete bank slip cost")
	}
	return c.NoContent(http.StatusNoContent)
}

func toCostPlanResponse(p *domain.CostPlan) CostPlanResponse {
	return CostPlanResponse{
		ID:                             p.ID,
		Name:                           p.Name,
		MaxEmployees:                   p.MaxEmployees,
		MaxCNPJs:                       p.MaxCNPJs,
		BaseLicenseCost:                p.BaseLicenseCost.StringFixed(2),
		MonthlyLicenseCost:             p.MonthlyLicenseCost().StringFixed(2),
		BillingType:                    string(p.BillingType),
		ExemptionPeriodMonths:          p.ExemptionPeriodMonths,
		EarlyPaymentDiscountPercentage: p.EarlyPaymentDiscountPercentage.StringFixed(2),
		ExtraEmployeeUnitCost:          p.ExtraEmployeeUnitCost.StringFixed(2),
		ExtraCNPJUnitCost:              p.ExtraCNPJUnitCost.StringFixed(2),
		UpdatedAt:                      p.UpdatedAt.Format(time.RFC3339),
	}
}

func toCompanyCostResponse(cc *domain.CompanyCost) CompanyCostResponse {
	return CompanyCostResponse{
		ID:            cc.ID,
		Description:   cc.Description,
		Category:      cc.Category,
		MonthlyAmount: cc.MonthlyAmount.StringFixed(2),
		IsActive:      cc.IsActive,
		UpdatedAt:     cc.UpdatedAt.Format(time.RFC3339),
	}
}

func toBankSlipCostResponse(b *domain.BankSlipCost) BankSlipCostResponse {
	return BankSlipCostResponse{
		ContractID:        b.ContractID,
		MonthlyCost:       b.MonthlyCost.StringFixed(2),
		BillingStartMonth: b.BillingStartMonth,
		UpdatedAt:         b.UpdatedAt.Format(time.RFC3339),
	}
}
