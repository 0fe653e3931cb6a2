package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCostPlanNotFound         = errors.New("cost plan not found")
	ErrCostPlanLimitsInvalid    = errors.New("max employees and max CNPJs must be positive")
	ErrCostPlanCostInvalid      = errors.New("license and unit costs must not be negative")
	ErrCostPlanExemptionInvalid = errors.New("exemption period must not be negative")
	ErrCostPlanDiscountInvalid  = errors.New("early payment discount must be between 0 and 100")
)

// CostPlan is a license-cost tier the provider pays its supplier, keyed by employee and CNPJ ranges
type CostPlan struct {
	ID                             int32           `json:"id"`
	WorkspaceID                    int32           `json:"workspaceId"`
	Name                           string          `json:"name"`
	MaxEmployees                   int32           `json:"maxEmployees"`
	MaxCNPJs                       int32           `json:"maxCnpjs"`
	BaseLicenseCost                decimal.Decimal `json:"baseLicenseCost"`
	BillingType                    PlanType        `json:"billingType"`
	ExemptionPeriodMonths          int32           `json:"exemptionPeriodMonths"`
	EarlyPaymentDiscountPercentage decimal.Decimal `json:"earlyPaymentDiscountPercentage"`
	ExtraEmployeeUnitCost          decimal.Decimal `json:"extraEmployeeUnitCost"`
	ExtraCNPJUnitCost              decimal.Decimal `json:"extraCnpjUnitCost"`
	CreatedAt                      time.Time       `json:"createdAt"`
	UpdatedAt                      time.Time       `json:"updatedAt"`
}

func (p *CostPlan) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if p.MaxEmployees <= 0 || p.MaxCNPJs <= 0 {
		return ErrCostPlanLimitsInvalid
	}
	if p.BaseLicenseCost.IsNegative() || p.ExtraEmployeeUnitCost.IsNegative() || p.ExtraCNPJUnitCost.IsNegative() {
		return ErrCostPlanCostInvalid
	}
	if !p.BillingType.IsValid() {
		return ErrInvalidPlanType
	}
	if p.ExemptionPeriodMonths < 0 {
		return ErrCostPlanExemptionInvalid
	}
	if p.EarlyPaymentDiscountPercentage.IsNegative() || p.EarlyPaymentDiscountPercentage.GreaterThan(hundred) {
		return ErrCostPlanDiscountInvalid
	}
	return nil
}

// MonthlyLicenseCost converts the base license cost to a monthly figure (annual /12, semiannual /6)
func (p *CostPlan) MonthlyLicenseCost() decimal.Decimal {
	return p.BaseLicenseCost.Div(decimal.NewFromInt(int64(p.BillingType.CycleMonths())))
}

// DiscountedMonthlyLicenseCost is the monthly cost when the supplier invoice is paid early
func (p *CostPlan) DiscountedMonthlyLicenseCost() decimal.Decimal {
	monthly := p.MonthlyLicenseCost()
	return monthly.Sub(Percent(monthly, p.EarlyPaymentDiscountPercentage))
}

// Covers reports whether the tier fits the given head counts without extras
func (p *CostPlan) Covers(employees, cnpjs int32) bool {
	return employees <= p.MaxEmployees && cnpjs <= p.MaxCNPJs
}

type CostPlanRepository interface {
	Create(plan *CostPlan) (*CostPlan, error)
	GetByID(workspaceID int32, id int32) (*CostPlan, error)
	List(workspaceID int32) ([]*CostPlan, error)
	Update(plan *CostPlan) (*CostPlan, error)
	Delete(workspaceID int32, id int32) error
}
