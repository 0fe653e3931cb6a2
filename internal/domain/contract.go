package domain

import (
	"errors"
	"time"

	"github.com/margem-saas/margem-backend/internal/util"
	"github.com/shopspring/decimal"
)

var (
	ErrContractNotFound       = errors.New("contract not found")
	ErrContractorNameRequired = errors.New("contractor name is required")
	ErrContractorNameTooLong  = errors.New("contractor name must be 255 characters or less")
	ErrInvalidPlanType        = errors.New("plan type must be monthly, semiannual or annual")
	ErrInvalidContractStatus  = errors.New("status must be active or inactive")
	ErrContractValueInvalid   = errors.New("base value must not be negative")
	ErrTrialDaysInvalid       = errors.New("trial days must not be negative")
	ErrStartDateRequired      = errors.New("start date is required")
	ErrContractCountsInvalid  = errors.New("employee and CNPJ counts must not be negative")
	ErrRenewalBeforeStart     = errors.New("renewal date must not be before start date")
)

// PlanType is the billing periodicity of a contract
type PlanType string

const (
	PlanMonthly    PlanType = "monthly"
	PlanSemiannual PlanType = "semiannual"
	PlanAnnual     PlanType = "annual"
)

// IsValid reports whether p is a known plan type
func (p PlanType) IsValid() bool {
	switch p {
	case PlanMonthly, PlanSemiannual, PlanAnnual:
		return true
	}
	return false
}

// CycleMonths returns the number of months one invoice covers (1, 6 or 12)
func (p PlanType) CycleMonths() int {
	switch p {
	case PlanAnnual:
		return 12
	case PlanSemiannual:
		return 6
	default:
		return 1
	}
}

type ContractStatus string

const (
	ContractActive   ContractStatus = "active"
	ContractInactive ContractStatus = "inactive"
)

// Contract is a billing agreement between the provider and a contractor
type Contract struct {
	ID                 int32           `json:"id"`
	WorkspaceID        int32           `json:"workspaceId"`
	ContractorName     string          `json:"contractorName"`
	ContractorDocument string          `json:"contractorDocument"`
	PlanType           PlanType        `json:"planType"`
	BaseValue          decimal.Decimal `json:"baseValue"`
	StartDate          time.Time       `json:"startDate"`
	TrialDays          int32           `json:"trialDays"`
	RenewalDate        *time.Time      `json:"renewalDate,omitempty"`
	Status             ContractStatus  `json:"status"`
	EmployeeCount      int32           `json:"employeeCount"`
	CNPJCount          int32           `json:"cnpjCount"`
	CostPlanID         *int32          `json:"costPlanId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (c *Contract) Validate() error {
	if c.ContractorName == "" {
		return ErrContractorNameRequired
	}
	if len(c.ContractorName) > MaxNameLength {
		return ErrContractorNameTooLong
	}
	if !c.PlanType.IsValid() {
		return ErrInvalidPlanType
	}
	if c.Status != ContractActive && c.Status != ContractInactive {
		return ErrInvalidContractStatus
	}
	if c.BaseValue.IsNegative() {
		return ErrContractValueInvalid
	}
	if c.TrialDays < 0 {
		return ErrTrialDaysInvalid
	}
	if c.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if c.EmployeeCount < 0 || c.CNPJCount < 0 {
		return ErrContractCountsInvalid
	}
	if c.RenewalDate != nil && c.RenewalDate.Before(c.StartDate) {
		return ErrRenewalBeforeStart
	}
	return nil
}

// IsActive returns true when the contract is in active status
func (c *Contract) IsActive() bool {
	return c.Status == ContractActive
}

// BillingStart returns the first billable day: start date plus the trial length in calendar days
func (c *Contract) BillingStart() time.Time {
	return DateOnly(c.StartDate).AddDate(0, 0, int(c.TrialDays))
}

// StartMonth returns the calendar month the contract started in
func (c *Contract) StartMonth() AnalysisMonth {
	return MonthOf(c.StartDate)
}

// RenewalDateForYear returns the contract's renewal anniversary in the given year.
// The anniversary day comes from the stored renewal date (or the start date when none is set),
// clamped to the month length so a 29/02 anniversary renews on 28/02 in common years.
func (c *Contract) RenewalDateForYear(year int) time.Time {
	anchor := c.StartDate
	if c.RenewalDate != nil {
		anchor = *c.RenewalDate
	}
	return util.CalculateActualDate(year, anchor.Month(), anchor.Day())
}

// ContractFilter narrows contract listings
type ContractFilter struct {
	Status   *ContractStatus
	PlanType *PlanType
	Search   string
}

type ContractRepository interface {
	Create(contract *Contract) (*Contract, error)
	GetByID(workspaceID int32, id int32) (*Contract, error)
	List(workspaceID int32, filter ContractFilter) ([]*Contract, error)
	Update(contract *Contract) (*Contract, error)
	UpdateRenewalDate(workspaceID int32, id int32, renewalDate time.Time) error
	// Delete removes the contract together with its adjustments, locks, addons and bank-slip cost
	Delete(workspaceID int32, id int32) error
}
