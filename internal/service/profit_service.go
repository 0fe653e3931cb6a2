package service

import (
	"sort"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ProfitService runs the profitability pipeline: revenue per contract, cost allocation over the
// whole analysis set, then profit figures, filters and the summary
type ProfitService struct {
	workspaceRepo   domain.WorkspaceRepository
	contractRepo    domain.ContractRepository
	adjustmentRepo  domain.ValueAdjustmentRepository
	addonRepo       domain.AddonRepository
	bankSlipRepo    domain.BankSlipCostRepository
	costPlanRepo    domain.CostPlanRepository
	companyCostRepo domain.CompanyCostRepository
	projector       *RevenueProjector
	allocator       *CostAllocator
}

// NewProfitService creates a new ProfitService
func NewProfitService(
	workspaceRepo domain.WorkspaceRepository,
	contractRepo domain.ContractRepository,
	adjustmentRepo domain.ValueAdjustmentRepository,
	addonRepo domain.AddonRepository,
	bankSlipRepo domain.BankSlipCostRepository,
	costPlanRepo domain.CostPlanRepository,
	companyCostRepo domain.CompanyCostRepository,
	projector *RevenueProjector,
	allocator *CostAllocator,
) *ProfitService {
	return &ProfitService{
		workspaceRepo:   workspaceRepo,
		contractRepo:    contractRepo,
		adjustmentRepo:  adjustmentRepo,
		addonRepo:       addonRepo,
		bankSlipRepo:    bankSlipRepo,
		costPlanRepo:    costPlanRepo,
		companyCostRepo: companyCostRepo,
		projector:       projector,
		allocator:       allocator,
	}
}

// ProfitAnalysis is the full output of one pipeline run
type ProfitAnalysis struct {
	Workspace *domain.Workspace              `json:"-"`
	Summary   *domain.ProfitSummary          `json:"summary"`
	Contracts []*domain.ContractProfitDetail `json:"contracts"`
}

// ledgerSnapshot is everything a pipeline run reads, loaded once so every contract sees the same state
type ledgerSnapshot struct {
	workspace    *domain.Workspace
	contracts    []*domain.Contract
	adjustments  map[int32][]*domain.ValueAdjustment
	addons       map[int32][]*domain.Addon
	bankSlips    map[int32]*domain.BankSlipCost
	costPlans    []*domain.CostPlan
	companyCosts []*domain.CompanyCost
}

func (s *ProfitService) loadSnapshot(workspaceID int32) (*ledgerSnapshot, error) {
	snap := &ledgerSnapshot{
		adjustments: make(map[int32][]*domain.ValueAdjustment),
		addons:      make(map[int32][]*domain.Addon),
		bankSlips:   make(map[int32]*domain.BankSlipCost),
	}
	active := domain.ContractActive

	var (
		adjustments []*domain.ValueAdjustment
		addons      []*domain.Addon
		bankSlips   []*domain.BankSlipCost
	)

	var g errgroup.Group
	g.Go(func() error {
		ws, err := s.workspaceRepo.GetByID(workspaceID)
		snap.workspace = ws
		return err
	})
	g.Go(func() error {
		contracts, err := s.contractRepo.List(workspaceID, domain.ContractFilter{Status: &active})
		snap.contracts = contracts
		return err
	})
	g.Go(func() error {
		var err error
		adjustments, err = s.adjustmentRepo.ListByWorkspace(workspaceID)
		return err
	})
	g.Go(func() error {
		var err error
		addons, err = s.addonRepo.ListByWorkspace(workspaceID)
		return err
	})
	g.Go(func() error {
		var err error
		bankSlips, err = s.bankSlipRepo.ListByWorkspace(workspaceID)
		return err
	})
	g.Go(func() error {
		plans, err := s.costPlanRepo.List(workspaceID)
		snap.costPlans = plans
		return err
	})
	g.Go(func() error {
		costs, err := s.companyCostRepo.List(workspaceID)
		snap.companyCosts = costs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, adj := range adjustments {
		snap.adjustments[adj.ContractID] = append(snap.adjustments[adj.ContractID], adj)
	}
	for _, addon := range addons {
		snap.addons[addon.ContractID] = append(snap.addons[addon.ContractID], addon)
	}
	for _, b := range bankSlips {
		snap.bankSlips[b.ContractID] = b
	}
	return snap, nil
}

// Analyze runs the pipeline for one month
func (s *ProfitService) Analyze(workspaceID int32, month domain.AnalysisMonth, mode domain.ViewMode, filters domain.ProfitFilters) (*ProfitAnalysis, error) {
	start := time.Now()

	snap, err := s.loadSnapshot(workspaceID)
	if err != nil {
		return nil, err
	}
	analysis, analyzed := s.analyzeSnapshot(snap, month, mode, filters)

	metrics.ObserveAnalysis(string(mode), analyzed, time.Since(start))
	return analysis, nil
}

// ContractProfitDetails returns the filtered per-contract details for a month
func (s *ProfitService) ContractProfitDetails(workspaceID int32, month domain.AnalysisMonth, mode domain.ViewMode, filters domain.ProfitFilters) ([]*domain.ContractProfitDetail, error) {
	analysis, err := s.Analyze(workspaceID, month, mode, filters)
	if err != nil {
		return nil, err
	}
	return analysis.Contracts, nil
}

// ProfitMetrics returns the summary over the filtered contract set for a month
func (s *ProfitService) ProfitMetrics(workspaceID int32, month domain.AnalysisMonth, mode domain.ViewMode, filters domain.ProfitFilters) (*domain.ProfitSummary, error) {
	analysis, err := s.Analyze(workspaceID, month, mode, filters)
	if err != nil {
		return nil, err
	}
	return analysis.Summary, nil
}

// ProfitTrend returns one summary per month in [from, to], reading the ledgers once
func (s *ProfitService) ProfitTrend(workspaceID int32, from, to domain.AnalysisMonth, mode domain.ViewMode, filters domain.ProfitFilters) ([]*domain.ProfitSummary, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidTrendRange
	}
	if to.MonthsSince(from)+1 > domain.MaxTrendMonths {
		return nil, domain.ErrTrendRangeTooLong
	}

	snap, err := s.loadSnapshot(workspaceID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ProfitSummary, 0, to.MonthsSince(from)+1)
	for m := from; !to.Before(m); m = m.AddMonths(1) {
		analysis, _ := s.analyzeSnapshot(snap, m, mode, filters)
		summaries = append(summaries, analysis.Summary)
	}
	return summaries, nil
}

// ContractRevenue explains one contract's revenue for a month
func (s *ProfitService) ContractRevenue(workspaceID, contractID int32, month domain.AnalysisMonth, mode domain.ViewMode) (*RevenueBreakdown, error) {
	contract, err := s.contractRepo.GetByID(workspaceID, contractID)
	if err != nil {
		return nil, err
	}
	return s.projector.MonthlyRevenue(contract, month, mode)
}

// analyzeSnapshot is the pure part of the pipeline. It returns the analysis and the size of the
// allocation set.
func (s *ProfitService) analyzeSnapshot(snap *ledgerSnapshot, month domain.AnalysisMonth, mode domain.ViewMode, filters domain.ProfitFilters) (*ProfitAnalysis, int) {
	// the allocation set never depends on filters
	contracts := make([]*domain.Contract, 0, len(snap.contracts))
	for _, c := range snap.contracts {
		if c.IsActive() && !month.Before(c.StartMonth()) {
			contracts = append(contracts, c)
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].ID < contracts[j].ID })

	// pass 1: revenue
	breakdowns := make([]RevenueBreakdown, len(contracts))
	inputs := make([]AllocationInput, len(contracts))
	for i, c := range contracts {
		addonRevenue, anomalies := domain.SumAddonRevenue(snap.addons[c.ID])
		logAddonAnomalies(c.WorkspaceID, anomalies)
		breakdowns[i] = s.projector.Project(c, snap.adjustments[c.ID], addonRevenue, month, mode)
		inputs[i] = AllocationInput{Contract: c, Revenue: breakdowns[i].Revenue}
	}

	// pass 2: allocation
	fixedCosts := domain.TotalFixedCompanyCosts(snap.companyCosts)
	allocations := s.allocator.Allocate(inputs, month, CostSnapshot{
		TaxRatePercent:         snap.workspace.TaxRatePercent,
		TotalFixedCompanyCosts: fixedCosts,
		CostPlans:              snap.costPlans,
		BankSlips:              snap.bankSlips,
	})

	details := make([]*domain.ContractProfitDetail, 0, len(contracts))
	for i, c := range contracts {
		detail := BuildProfitDetail(c, month, breakdowns[i], allocations[i])
		detail.ValueVariation = domain.ClassifyValueVariation(snap.adjustments[c.ID], snap.addons[c.ID], month)
		if filters.Matches(detail) {
			details = append(details, detail)
		}
	}

	return &ProfitAnalysis{
		Workspace: snap.workspace,
		Summary:   Summarize(month, mode, fixedCosts, details),
		Contracts: details,
	}, len(contracts)
}

// BuildProfitDetail combines revenue and allocation into the profit figures of one contract
func BuildProfitDetail(contract *domain.Contract, month domain.AnalysisMonth, revenue RevenueBreakdown, alloc *domain.CostAllocation) *domain.ContractProfitDetail {
	gross := revenue.Revenue.Sub(alloc.LicenseCost).Sub(alloc.CompanyFraction)
	net := gross.Sub(alloc.Tax).Sub(alloc.BankSlipFee)
	costs := alloc.LicenseCost.Add(alloc.CompanyFraction).Add(alloc.BankSlipFee)

	return &domain.ContractProfitDetail{
		ContractID:               contract.ID,
		ContractorName:           contract.ContractorName,
		PlanType:                 contract.PlanType,
		Month:                    month,
		ViewMode:                 revenue.ViewMode,
		EffectiveValue:           revenue.EffectiveValue,
		AddonRevenue:             revenue.AddonRevenue,
		Revenue:                  revenue.Revenue,
		IsClientBilled:           revenue.IsClientBilled,
		IsBillingMonth:           revenue.IsBillingMonth,
		Tax:                      alloc.Tax,
		CompanyFraction:          alloc.CompanyFraction,
		LicenseCost:              alloc.LicenseCost,
		BankSlipFee:              alloc.BankSlipFee,
		GrossProfit:              gross,
		NetProfit:                net,
		ProfitMargin:             margin(gross, revenue.Revenue),
		NetProfitMargin:          margin(net, revenue.Revenue),
		IsDeficitMonth:           revenue.Revenue.IsZero() && costs.IsPositive(),
		CostPlanMissing:          alloc.CostPlanMissing,
		ExemptionMonthsRemaining: alloc.ExemptionMonthsRemaining,
		ValueVariation:           domain.VariationNone,
	}
}

// margin is profit/revenue*100; without revenue a loss reads as -100 and anything else as 0
func margin(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsPositive() {
		return profit.Div(revenue).Mul(decimal.NewFromInt(100))
	}
	if profit.IsNegative() {
		return decimal.NewFromInt(-100)
	}
	return decimal.Zero
}

// Summarize sums the details and averages their margins (unweighted)
func Summarize(month domain.AnalysisMonth, mode domain.ViewMode, fixedCosts decimal.Decimal, details []*domain.ContractProfitDetail) *domain.ProfitSummary {
	summary := &domain.ProfitSummary{
		Month:                  month,
		ViewMode:               mode,
		ContractCount:          len(details),
		TotalFixedCompanyCosts: fixedCosts,
		TotalRevenue:           decimal.Zero,
		TotalTax:               decimal.Zero,
		TotalCompanyFraction:   decimal.Zero,
		TotalLicenseCost:       decimal.Zero,
		TotalBankSlipFees:      decimal.Zero,
		TotalGrossProfit:       decimal.Zero,
		TotalNetProfit:         decimal.Zero,
		AverageProfitMargin:    decimal.Zero,
		AverageNetProfitMargin: decimal.Zero,
	}

	marginSum := decimal.Zero
	netMarginSum := decimal.Zero
	for _, d := range details {
		summary.TotalRevenue = summary.TotalRevenue.Add(d.Revenue)
		summary.TotalTax = summary.TotalTax.Add(d.Tax)
		summary.TotalCompanyFraction = summary.TotalCompanyFraction.Add(d.CompanyFraction)
		summary.TotalLicenseCost = summary.TotalLicenseCost.Add(d.LicenseCost)
		summary.TotalBankSlipFees = summary.TotalBankSlipFees.Add(d.BankSlipFee)
		summary.TotalGrossProfit = summary.TotalGrossProfit.Add(d.GrossProfit)
		summary.TotalNetProfit = summary.TotalNetProfit.Add(d.NetProfit)
		marginSum = marginSum.Add(d.ProfitMargin)
		netMarginSum = netMarginSum.Add(d.NetProfitMargin)
		if d.IsDeficitMonth {
			summary.DeficitCount++
		}
	}

	if n := len(details); n > 0 {
		count := decimal.NewFromInt(int64(n))
		summary.AverageProfitMargin = marginSum.Div(count)
		summary.AverageNetProfitMargin = netMarginSum.Div(count)
	}
	return summary
}
