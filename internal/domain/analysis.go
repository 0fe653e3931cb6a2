package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ViewMode selects how non-monthly contract values are recognized in a month
type ViewMode string

const (
	// ViewMonthlyAverage spreads the cycle value evenly over its months
	ViewMonthlyAverage ViewMode = "monthly_average"
	// ViewActualBilling recognizes the full invoice only in the month it is issued
	ViewActualBilling ViewMode = "actual_billing"
)

// ParseViewMode accepts the two mode names; empty defaults to monthly_average
func ParseViewMode(raw string) (ViewMode, error) {
	switch ViewMode(strings.TrimSpace(raw)) {
	case "", ViewMonthlyAverage:
		return ViewMonthlyAverage, nil
	case ViewActualBilling:
		return ViewActualBilling, nil
	}
	return "", ErrInvalidViewMode
}

// MaxTrendMonths bounds the range of a profit trend request
const MaxTrendMonths = 24

var (
	ErrInvalidTrendRange = errors.New("trend range must end on or after its start")
	ErrTrendRangeTooLong = errors.New("trend range must be 24 months or less")
)

// ProfitFilters narrows the contracts shown after allocation. Filters never change the
// allocation set, so company fractions stay the same whichever filter is applied.
type ProfitFilters struct {
	PlanTypes   []PlanType `json:"planTypes,omitempty"`
	ContractIDs []int32    `json:"contractIds,omitempty"`
	Search      string     `json:"search,omitempty"`
	DeficitOnly bool       `json:"deficitOnly,omitempty"`
}

// Matches reports whether a computed detail passes every filter
func (f ProfitFilters) Matches(d *ContractProfitDetail) bool {
	if len(f.PlanTypes) > 0 {
		found := false
		for _, p := range f.PlanTypes {
			if p == d.PlanType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.ContractIDs) > 0 {
		found := false
		for _, id := range f.ContractIDs {
			if id == d.ContractID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(d.ContractorName), strings.ToLower(strings.TrimSpace(f.Search))) {
		return false
	}
	if f.DeficitOnly && !d.IsDeficitMonth {
		return false
	}
	return true
}

// CostAllocation is one contract's share of the month's costs
type CostAllocation struct {
	ContractID               int32           `json:"contractId"`
	Tax                      decimal.Decimal `json:"tax"`
	CompanyFraction          decimal.Decimal `json:"companyFraction"`
	LicenseCost              decimal.Decimal `json:"licenseCost"`
	BankSlipFee              decimal.Decimal `json:"bankSlipFee"`
	CostPlanID               *int32          `json:"costPlanId,omitempty"`
	CostPlanMissing          bool            `json:"costPlanMissing"`
	InExemption              bool            `json:"inExemption"`
	ExemptionMonthsRemaining int             `json:"exemptionMonthsRemaining"`
}

// ContractProfitDetail is the per-contract result of a profitability analysis
type ContractProfitDetail struct {
	ContractID               int32           `json:"contractId"`
	ContractorName           string          `json:"contractorName"`
	PlanType                 PlanType        `json:"planType"`
	Month                    AnalysisMonth   `json:"month"`
	ViewMode                 ViewMode        `json:"viewMode"`
	EffectiveValue           decimal.Decimal `json:"effectiveValue"`
	AddonRevenue             decimal.Decimal `json:"addonRevenue"`
	Revenue                  decimal.Decimal `json:"revenue"`
	IsClientBilled           bool            `json:"isClientBilled"`
	IsBillingMonth           bool            `json:"isBillingMonth"`
	Tax                      decimal.Decimal `json:"tax"`
	CompanyFraction          decimal.Decimal `json:"companyFraction"`
	LicenseCost              decimal.Decimal `json:"licenseCost"`
	BankSlipFee              decimal.Decimal `json:"bankSlipFee"`
	GrossProfit              decimal.Decimal `json:"grossProfit"`
	NetProfit                decimal.Decimal `json:"netProfit"`
	ProfitMargin             decimal.Decimal `json:"profitMargin"`
	NetProfitMargin          decimal.Decimal `json:"netProfitMargin"`
	IsDeficitMonth           bool            `json:"isDeficitMonth"`
	CostPlanMissing          bool            `json:"costPlanMissing"`
	ExemptionMonthsRemaining int             `json:"exemptionMonthsRemaining"`
	ValueVariation           ValueVariation  `json:"valueVariation"`
}

// ProfitSummary aggregates the details of a filtered contract set
type ProfitSummary struct {
	Month                  AnalysisMonth   `json:"month"`
	ViewMode               ViewMode        `json:"viewMode"`
	ContractCount          int             `json:"contractCount"`
	DeficitCount           int             `json:"deficitCount"`
	TotalFixedCompanyCosts decimal.Decimal `json:"totalFixedCompanyCosts"`
	TotalRevenue           decimal.Decimal `json:"totalRevenue"`
	TotalTax               decimal.Decimal `json:"totalTax"`
	TotalCompanyFraction   decimal.Decimal `json:"totalCompanyFraction"`
	TotalLicenseCost       decimal.Decimal `json:"totalLicenseCost"`
	TotalBankSlipFees      decimal.Decimal `json:"totalBankSlipFees"`
	TotalGrossProfit       decimal.Decimal `json:"totalGrossProfit"`
	TotalNetProfit         decimal.Decimal `json:"totalNetProfit"`
	AverageProfitMargin    decimal.Decimal `json:"averageProfitMargin"`
	AverageNetProfitMargin decimal.Decimal `json:"averageNetProfitMargin"`
}
