package service

import (
	"sort"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CostAllocator distributes tax, fixed company costs, license costs and bank-slip fees over
// the analysis set of one month
type CostAllocator struct {
	extraEmployeeUnitCost decimal.Decimal
	extraCNPJUnitCost     decimal.Decimal
}

// NewCostAllocator creates a new CostAllocator. The unit costs price head-count overflow when a
// cost plan does not carry its own.
func NewCostAllocator(extraEmployeeUnitCost, extraCNPJUnitCost decimal.Decimal) *CostAllocator {
	return &CostAllocator{
		extraEmployeeUnitCost: extraEmployeeUnitCost,
		extraCNPJUnitCost:     extraCNPJUnitCost,
	}
}

// AllocationInput pairs a contract with its revenue for the month (pass 1 output)
type AllocationInput struct {
	Contract *domain.Contract
	Revenue  decimal.Decimal
}

// CostSnapshot holds the workspace cost settings read once per analysis
type CostSnapshot struct {
	TaxRatePercent         decimal.Decimal
	TotalFixedCompanyCosts decimal.Decimal
	CostPlans              []*domain.CostPlan
	BankSlips              map[int32]*domain.BankSlipCost
}

// Allocate runs the second pass: total revenue is summed over the whole set first, then each
// contract receives its share. Results keep the input order.
func (a *CostAllocator) Allocate(inputs []AllocationInput, month domain.AnalysisMonth, snapshot CostSnapshot) []*domain.CostAllocation {
	totalRevenue := decimal.Zero
	for _, in := range inputs {
		totalRevenue = totalRevenue.Add(in.Revenue)
	}

	plansByID := make(map[int32]*domain.CostPlan, len(snapshot.CostPlans))
	for _, p := range snapshot.CostPlans {
		plansByID[p.ID] = p
	}

	allocations := make([]*domain.CostAllocation, 0, len(inputs))
	for _, in := range inputs {
		c := in.Contract
		monthsSinceStart := month.MonthsSince(c.StartMonth())

		alloc := &domain.CostAllocation{
			ContractID:      c.ID,
			Tax:             domain.Percent(in.Revenue, snapshot.TaxRatePercent),
			CompanyFraction: decimal.Zero,
			LicenseCost:     decimal.Zero,
			BankSlipFee:     snapshot.BankSlips[c.ID].FeeFor(monthsSinceStart),
		}
		if totalRevenue.IsPositive() {
			alloc.CompanyFraction = in.Revenue.Div(totalRevenue).Mul(snapshot.TotalFixedCompanyCosts)
		}

		plan, extras, err := a.ResolveCostPlan(c, snapshot.CostPlans, plansByID)
		if err != nil {
			alloc.CostPlanMissing = true
			metrics.RecordAnomaly(metrics.AnomalyMissingCostPlan)
			log.Warn().
				Err(err).
				Int32("workspace_id", c.WorkspaceID).
				Int32("contract_id", c.ID).
				Msg("No cost plan for contract, license cost treated as zero")
			allocations = append(allocations, alloc)
			continue
		}

		planID := plan.ID
		alloc.CostPlanID = &planID
		exemption := int(plan.ExemptionPeriodMonths)
		if monthsSinceStart < exemption {
			alloc.InExemption = true
		} else {
			alloc.LicenseCost = plan.MonthlyLicenseCost().Add(extras)
		}
		if remaining := exemption - monthsSinceStart - 1; remaining > 0 {
			alloc.ExemptionMonthsRemaining = remaining
		}

		allocations = append(allocations, alloc)
	}

	return allocations
}

// ResolveCostPlan picks the license tier for a contract and the monthly cost of its head-count
// overflow. An explicit plan on the contract wins; otherwise the cheapest covering tier is used,
// and when no tier covers the counts the largest tier is charged per extra unit.
func (a *CostAllocator) ResolveCostPlan(contract *domain.Contract, plans []*domain.CostPlan, byID map[int32]*domain.CostPlan) (*domain.CostPlan, decimal.Decimal, error) {
	if contract.CostPlanID != nil {
		plan, ok := byID[*contract.CostPlanID]
		if !ok {
			return nil, decimal.Zero, domain.ErrCostPlanNotFound
		}
		return plan, a.extrasFor(plan, contract), nil
	}
	if len(plans) == 0 {
		return nil, decimal.Zero, domain.ErrCostPlanNotFound
	}

	var cheapest *domain.CostPlan
	for _, p := range plans {
		if !p.Covers(contract.EmployeeCount, contract.CNPJCount) {
			continue
		}
		if cheapest == nil || cheaperPlan(p, cheapest) {
			cheapest = p
		}
	}
	if cheapest != nil {
		return cheapest, decimal.Zero, nil
	}

	largest := largestPlan(plans)
	return largest, a.extrasFor(largest, contract), nil
}

func (a *CostAllocator) extrasFor(plan *domain.CostPlan, contract *domain.Contract) decimal.Decimal {
	extras := decimal.Zero
	if over := contract.EmployeeCount - plan.MaxEmployees; over > 0 {
		extras = extras.Add(unitCost(plan.ExtraEmployeeUnitCost, a.extraEmployeeUnitCost).Mul(decimal.NewFromInt32(over)))
	}
	if over := contract.CNPJCount - plan.MaxCNPJs; over > 0 {
		extras = extras.Add(unitCost(plan.ExtraCNPJUnitCost, a.extraCNPJUnitCost).Mul(decimal.NewFromInt32(over)))
	}
	return extras
}

func unitCost(planCost, fallback decimal.Decimal) decimal.Decimal {
	if planCost.IsPositive() {
		return planCost
	}
	return fallback
}

func cheaperPlan(a, b *domain.CostPlan) bool {
	cmp := a.MonthlyLicenseCost().Cmp(b.MonthlyLicenseCost())
	if cmp == 0 {
		return a.ID < b.ID
	}
	return cmp < 0
}

func largestPlan(plans []*domain.CostPlan) *domain.CostPlan {
	sorted := make([]*domain.CostPlan, len(plans))
	copy(sorted, plans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MaxEmployees != sorted[j].MaxEmployees {
			return sorted[i].MaxEmployees > sorted[j].MaxEmployees
		}
		if sorted[i].MaxCNPJs != sorted[j].MaxCNPJs {
			return sorted[i].MaxCNPJs > sorted[j].MaxCNPJs
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}
