package service

import (
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RevenueProjector computes a contract's recognized revenue for an analysis month under a view mode
type RevenueProjector struct {
	adjustmentRepo   domain.ValueAdjustmentRepository
	addonRepo        domain.AddonRepository
	billing          *BillingCycleResolver
	addonCycleGating bool
}

// NewRevenueProjector creates a new RevenueProjector. With addonCycleGating enabled, addon revenue
// follows the invoice in actual_billing mode (zero in months without an invoice); disabled, addons
// contribute in full every month.
func NewRevenueProjector(
	adjustmentRepo domain.ValueAdjustmentRepository,
	addonRepo domain.AddonRepository,
	billing *BillingCycleResolver,
	addonCycleGating bool,
) *RevenueProjector {
	return &RevenueProjector{
		adjustmentRepo:   adjustmentRepo,
		addonRepo:        addonRepo,
		billing:          billing,
		addonCycleGating: addonCycleGating,
	}
}

// RevenueBreakdown explains how a month's revenue figure was reached
type RevenueBreakdown struct {
	ContractID     int32           `json:"contractId"`
	Month          string          `json:"month"`
	ViewMode       domain.ViewMode `json:"viewMode"`
	EffectiveValue decimal.Decimal `json:"effectiveValue"`
	BaseRevenue    decimal.Decimal `json:"baseRevenue"`
	AddonRevenue   decimal.Decimal `json:"addonRevenue"`
	Revenue        decimal.Decimal `json:"revenue"`
	IsClientBilled bool            `json:"isClientBilled"`
	IsBillingMonth bool            `json:"isBillingMonth"`
}

// MonthlyRevenue loads the contract's ledgers and projects its revenue for month
func (p *RevenueProjector) MonthlyRevenue(contract *domain.Contract, month domain.AnalysisMonth, mode domain.ViewMode) (*RevenueBreakdown, error) {
	adjustments, err := p.adjustmentRepo.ListByContract(contract.WorkspaceID, contract.ID)
	if err != nil {
		return nil, err
	}
	addons, err := p.addonRepo.ListByContract(contract.WorkspaceID, contract.ID)
	if err != nil {
		return nil, err
	}

	addonRevenue, anomalies := domain.SumAddonRevenue(addons)
	logAddonAnomalies(contract.WorkspaceID, anomalies)

	breakdown := p.Project(contract, adjustments, addonRevenue, month, mode)
	return &breakdown, nil
}

// Project computes revenue from an already loaded ledger snapshot. It performs no I/O.
func (p *RevenueProjector) Project(
	contract *domain.Contract,
	adjustments []*domain.ValueAdjustment,
	addonRevenue decimal.Decimal,
	month domain.AnalysisMonth,
	mode domain.ViewMode,
) RevenueBreakdown {
	effective := domain.ResolveEffectiveValue(contract.BaseValue, adjustments, month.LastDay())
	billed := p.billing.IsClientBilled(contract.StartDate, contract.TrialDays, month)
	billingMonth := p.billing.IsBillingMonth(contract.PlanType, contract.StartDate, contract.TrialDays, month)

	base := decimal.Zero
	addon := addonRevenue
	switch mode {
	case domain.ViewActualBilling:
		if billingMonth {
			base = effective
		}
		// nothing is invoiced during the trial, addons included
		if !billed || (p.addonCycleGating && !billingMonth) {
			addon = decimal.Zero
		}
	default:
		// straight-line average; the trial does not gate this view
		base = effective.Div(decimal.NewFromInt(int64(contract.PlanType.CycleMonths())))
	}

	return RevenueBreakdown{
		ContractID:     contract.ID,
		Month:          month.String(),
		ViewMode:       mode,
		EffectiveValue: effective,
		BaseRevenue:    base,
		AddonRevenue:   addon,
		Revenue:        base.Add(addon),
		IsClientBilled: billed,
		IsBillingMonth: billingMonth,
	}
}

func logAddonAnomalies(workspaceID int32, anomalies []domain.AddonAnomaly) {
	for _, a := range anomalies {
		metrics.RecordAnomaly(metrics.AnomalyUnparseableCurrency)
		log.Warn().
			Err(a.Err).
			Int32("workspace_id", workspaceID).
			Int32("contract_id", a.Addon.ContractID).
			Int32("addon_id", a.Addon.ID).
			Str("field", "new_value").
			Str("raw", a.Addon.NewValue).
			Msg("Unparseable addon value treated as zero")
	}
}
