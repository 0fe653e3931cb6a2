package service

import (
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
)

// BillingCycleResolver decides whether a contract is billed in an analysis month and whether
// its recurring invoice lands in that month
type BillingCycleResolver struct{}

// NewBillingCycleResolver creates a new BillingCycleResolver
func NewBillingCycleResolver() *BillingCycleResolver {
	return &BillingCycleResolver{}
}

// BillingStart returns start date plus trialDays calendar days
func (r *BillingCycleResolver) BillingStart(startDate time.Time, trialDays int32) time.Time {
	return domain.DateOnly(startDate).AddDate(0, 0, int(trialDays))
}

// MonthsSinceBillingStart returns whole calendar months from the billing-start month to month.
// Negative while still inside the trial.
func (r *BillingCycleResolver) MonthsSinceBillingStart(startDate time.Time, trialDays int32, month domain.AnalysisMonth) int {
	return month.MonthsSince(domain.MonthOf(r.BillingStart(startDate, trialDays)))
}

// IsClientBilled reports whether billing is active in month. Billing counts for the whole month in
// which the trial ends, even when it ends mid-month.
func (r *BillingCycleResolver) IsClientBilled(startDate time.Time, trialDays int32, month domain.AnalysisMonth) bool {
	return r.MonthsSinceBillingStart(startDate, trialDays, month) >= 0
}

// IsBillingMonth reports whether the recurring invoice is issued in month: every billed month for
// monthly plans, every 6th or 12th month counted from the billing-start month otherwise.
func (r *BillingCycleResolver) IsBillingMonth(planType domain.PlanType, startDate time.Time, trialDays int32, month domain.AnalysisMonth) bool {
	elapsed := r.MonthsSinceBillingStart(startDate, trialDays, month)
	if elapsed < 0 {
		return false
	}
	return elapsed%planType.CycleMonths() == 0
}
