package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/service"
)

// ProfitHandler serves the profitability analysis
type ProfitHandler struct {
	profitService *service.ProfitService
	now           func() time.Time
}

// NewProfitHandler creates a new ProfitHandler
func NewProfitHandler(profitService *service.ProfitService) *ProfitHandler {
	return &ProfitHandler{profitService: profitService, now: time.Now}
}

// ContractProfitResponse is one contract's line of the analysis
type ContractProfitResponse struct {
	ContractID               int32  `json:"contractId"`
	ContractorName           string `json:"contractorName"`
	PlanType                 string `json:"planType"`
	EffectiveValue           string `json:"effectiveValue"`
	AddonRevenue             string `json:"addonRevenue"`
	Revenue                  string `json:"revenue"`
	IsClientBilled           bool   `json:"isClientBilled"`
	IsBillingMonth           bool   `json:"isBillingMonth"`
	Tax                      string `json:"tax"`
	CompanyFraction          string `json:"companyFraction"`
	LicenseCost              string `json:"licenseCost"`
	BankSlipFee              string `json:"bankSlipFee"`
	GrossProfit              string `json:"grossProfit"`
	NetProfit                string `json:"netProfit"`
	ProfitMargin             string `json:"profitMargin"`
	NetProfitMargin          string `json:"netProfitMargin"`
	IsDeficitMonth           bool   `json:"isDeficitMonth"`
	CostPlanMissing          bool   `json:"costPlanMissing"`
	ExemptionMonthsRemaining int    `json:"exemptionMonthsRemaining"`
	ValueVariation           string `json:"valueVariation"`
}

// ProfitSummaryResponse aggregates the contracts shown
type ProfitSummaryResponse struct {
	Month                  string `json:"month"`
	ViewMode               string `json:"viewMode"`
	ContractCount          int    `json:"contractCount"`
	DeficitCount           int    `json:"deficitCount"`
	TotalFixedCompanyCosts string `json:"totalFixedCompanyCosts"`
	TotalRevenue           string `json:"totalRevenue"`
	TotalTax               string `json:"totalTax"`
	TotalCompanyFraction   string `json:"totalCompanyFraction"`
	TotalLicenseCost       string `json:"totalLicenseCost"`
	TotalBankSlipFees      string `json:"totalBankSlipFees"`
	TotalGrossProfit       string `json:"totalGrossProfit"`
	TotalNetProfit         string `json:"totalNetProfit"`
	AverageProfitMargin    string `json:"averageProfitMargin"`
	AverageNetProfitMargin string `json:"averageNetProfitMargin"`
}

// ProfitAnalysisResponse is the summary together with the contract lines
type ProfitAnalysisResponse struct {
	Summary   ProfitSummaryResponse    `json:"summary"`
	Contracts []ContractProfitResponse `json:"contracts"`
}

// RevenueResponse explains one contract's revenue in a month
type RevenueResponse struct {
	ContractID     int32  `json:"contractId"`
	Month          string `json:"month"`
	ViewMode       string `json:"viewMode"`
	EffectiveValue string `json:"effectiveValue"`
	BaseRevenue    string `json:"baseRevenue"`
	AddonRevenue   string `json:"addonRevenue"`
	Revenue        string `json:"revenue"`
	IsClientBilled bool   `json:"isClientBilled"`
	IsBillingMonth bool   `json:"isBillingMonth"`
}

// analysisQuery is the month, mode and filters shared by the analysis endpoints
type analysisQuery struct {
	month   domain.AnalysisMonth
	mode    domain.ViewMode
	filters domain.ProfitFilters
}

// monthQueryParam parses a YYYY-MM query parameter, defaulting to the month of now
func monthQueryParam(c echo.Context, name string, now time.Time) (domain.AnalysisMonth, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return domain.MonthOf(now), nil
	}
	return parseMonth(raw)
}

func parseMonth(raw string) (domain.AnalysisMonth, error) {
	return domain.ParseAnalysisMonth(raw)
}

// parseProfitFilters reads planType and contractId (comma separated), search and deficitOnly
func parseProfitFilters(c echo.Context) (domain.ProfitFilters, error) {
	filters := domain.ProfitFilters{
		Search:      strings.TrimSpace(c.QueryParam("search")),
		DeficitOnly: c.QueryParam("deficitOnly") == "true",
	}
	for _, raw := range splitList(c.QueryParam("planType")) {
		plan := domain.PlanType(raw)
		if !plan.IsValid() {
			return filters, domain.ErrInvalidPlanType
		}
		filters.PlanTypes = append(filters.PlanTypes, plan)
	}
	for _, raw := range splitList(c.QueryParam("contractId")) {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || id <= 0 {
			return filters, fmt.Errorf("%w: contractId must be a positive integer", domain.ErrInvalidInput)
		}
		filters.ContractIDs = append(filters.ContractIDs, int32(id))
	}
	return filters, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *ProfitHandler) parseAnalysisQuery(c echo.Context) (analysisQuery, error) {
	var q analysisQuery
	var err error
	if q.month, err = monthQueryParam(c, "month", h.now()); err != nil {
		return q, err
	}
	if q.mode, err = domain.ParseViewMode(c.QueryParam("viewMode")); err != nil {
		return q, err
	}
	q.filters, err = parseProfitFilters(c)
	return q, err
}

// GetAnalysis handles GET /api/v1/profit/analysis?month=2025-03&viewMode=monthly_average
func (h *ProfitHandler) GetAnalysis(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	q, err := h.parseAnalysisQuery(c)
	if err != nil {
		return respondError(c, err, "run profit analysis")
	}

	analysis, err := h.profitService.Analyze(workspaceID, q.month, q.mode, q.filters)
	if err != nil {
		return respondError(c, err, "run profit analysis")
	}
	return c.JSON(http.StatusOK, ProfitAnalysisResponse{
		Summary:   toProfitSummaryResponse(analysis.Summary),
		Contracts: toContractProfitResponses(analysis.Contracts),
	})
}

// GetMetrics handles GET /api/v1/profit/metrics
func (h *ProfitHandler) GetMetrics(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	q, err := h.parseAnalysisQuery(c)
	if err != nil {
		return respondError(c, err, "compute profit metrics")
	}

	summary, err := h.profitService.ProfitMetrics(workspaceID, q.month, q.mode, q.filters)
	if err != nil {
		return respondError(c, err, "compute profit metrics")
	}
	return c.JSON(http.StatusOK, toProfitSummaryResponse(summary))
}

// GetContracts handles GET /api/v1/profit/contracts
func (h *ProfitHandler) GetContracts(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	q, err := h.parseAnalysisQuery(c)
	if err != nil {
		return respondError(c, err, "compute contract profit")
	}

	details, err := h.profitService.ContractProfitDetails(workspaceID, q.month, q.mode, q.filters)
	if err != nil {
		return respondError(c, err, "compute contract profit")
	}
	return c.JSON(http.StatusOK, toContractProfitResponses(details))
}

// GetTrend handles GET /api/v1/profit/trend?from=2025-01&to=2025-06
func (h *ProfitHandler) GetTrend(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	now := h.now()
	to, err := monthQueryParam(c, "to", now)
	if err != nil {
		return respondError(c, err, "compute profit trend")
	}
	from := to.AddMonths(-5)
	if raw := strings.TrimSpace(c.QueryParam("from")); raw != "" {
		if from, err = parseMonth(raw); err != nil {
			return respondError(c, err, "compute profit trend")
		}
	}
	mode, err := domain.ParseViewMode(c.QueryParam("viewMode"))
	if err != nil {
		return respondError(c, err, "compute profit trend")
	}
	filters, err := parseProfitFilters(c)
	if err != nil {
		return respondError(c, err, "compute profit trend")
	}

	summaries, err := h.profitService.ProfitTrend(workspaceID, from, to, mode, filters)
	if err != nil {
		return respondError(c, err, "compute profit trend")
	}

	response := make([]ProfitSummaryResponse, len(summaries))
	for i, summary := range summaries {
		response[i] = toProfitSummaryResponse(summary)
	}
	return c.JSON(http.StatusOK, response)
}

// GetContractRevenue handles GET /api/v1/contracts/:id/revenue?month=2025-03&viewMode=actual_billing
func (h *ProfitHandler) GetContractRevenue(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid contract ID", nil)
	}
	month, err := monthQueryParam(c, "month", h.now())
	if err != nil {
		return respondError(c, err, "compute contract revenue")
	}
	mode, err := domain.ParseViewMode(c.QueryParam("viewMode"))
	if err != nil {
		return respondError(c, err, "compute contract revenue")
	}

	breakdown, err := h.profitService.ContractRevenue(workspaceID, contractID, month, mode)
	if err != nil {
		return respondError(c, err, "compute contract revenue")
	}
	return c.JSON(http.StatusOK, RevenueResponse{
		ContractID:     breakdown.ContractID,
		Month:          breakdown.Month,
		ViewMode:       string(breakdown.ViewMode),
		EffectiveValue: breakdown.EffectiveValue.StringFixed(2),
		BaseRevenue:    breakdown.BaseRevenue.StringFixed(2),
		AddonRevenue:   breakdown.AddonRevenue.StringFixed(2),
		Revenue:        breakdown.Revenue.StringFixed(2),
		IsClientBilled: breakdown.IsClientBilled,
		IsBillingMonth: breakdown.IsBillingMonth,
	})
}

func toContractProfitResponses(details []*domain.ContractProfitDetail) []ContractProfitResponse {
	response := make([]ContractProfitResponse, len(details))
	for i, d := range details {
		response[i] = ContractProfitResponse{
			ContractID:               d.ContractID,
			ContractorName:           d.ContractorName,
			PlanType:                 string(d.PlanType),
			EffectiveValue:           d.EffectiveValue.StringFixed(2),
			AddonRevenue:             d.AddonRevenue.StringFixed(2),
			Revenue:                  d.Revenue.StringFixed(2),
			IsClientBilled:           d.IsClientBilled,
			IsBillingMonth:           d.IsBillingMonth,
			Tax:                      d.Tax.StringFixed(2),
			CompanyFraction:          d.CompanyFraction.StringFixed(2),
			LicenseCost:              d.LicenseCost.StringFixed(2),
			BankSlipFee:              d.BankSlipFee.StringFixed(2),
			GrossProfit:              d.GrossProfit.StringFixed(2),
			NetProfit:                d.NetProfit.StringFixed(2),
			ProfitMargin:             d.ProfitMargin.StringFixed(2),
			NetProfitMargin:          d.NetProfitMargin.StringFixed(2),
			IsDeficitMonth:           d.IsDeficitMonth,
			CostPlanMissing:          d.CostPlanMissing,
			ExemptionMonthsRemaining: d.ExemptionMonthsRemaining,
			ValueVariation:           string(d.ValueVariation),
		}
	}
	return response
}

func toProfitSummaryResponse(s *domain.ProfitSummary) ProfitSummaryResponse {
	return ProfitSummaryResponse{
		Month:                  s.Month.String(),
		ViewMode:               string(s.ViewMode),
		ContractCount:          s.ContractCount,
		DeficitCount:           s.DeficitCount,
		TotalFixedCompanyCosts: s.TotalFixedCompanyCosts.StringFixed(2),
		TotalRevenue:           s.TotalRevenue.StringFixed(2),
		TotalTax:               s.TotalTax.StringFixed(2),
		TotalCompanyFraction:   s.TotalCompanyFraction.StringFixed(2),
		TotalLicenseCost:       s.TotalLicenseCost.StringFixed(2),
		TotalBankSlipFees:      s.TotalBankSlipFees.StringFixed(2),
		TotalGrossProfit:       s.TotalGrossProfit.StringFixed(2),
		TotalNetProfit:         s.TotalNetProfit.StringFixed(2),
		AverageProfitMargin:    s.AverageProfitMargin.StringFixed(2),
		AverageNetProfitMargin: s.AverageNetProfitMargin.StringFixed(2),
	}
}
