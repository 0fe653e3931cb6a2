package service

import (
	"testing"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector(gating bool) *RevenueProjector {
	locks := testutil.NewMockAdjustmentLockRepository()
	return NewRevenueProjector(testutil.NewMockValueAdjustmentRepository(locks), testutil.NewMockAddonRepository(), NewBillingCycleResolver(), gating)
}

func TestRevenueProjector_AnnualActualBilling(t *testing.T) {
	p := newTestProjector(false)
	contract := newTestContract(1, domain.PlanAnnual, "1200", "2024-03-01")

	for m := 1; m <= 12; m++ {
		got := p.Project(contract, nil, decimal.Zero, ym(2025, m), domain.ViewActualBilling)
		if m == 3 {
			assertDecimal(t, "1200", got.Revenue)
			assert.True(t, got.IsBillingMonth)
		} else {
			assertDecimal(t, "0", got.Revenue)
			assert.False(t, got.IsBillingMonth)
		}
		assert.True(t, got.IsClientBilled)
	}
}

func TestRevenueProjector_MonthlyAverageAmortizes(t *testing.T) {
	p := newTestProjector(false)
	annual := newTestContract(1, domain.PlanAnnual, "1200", "2024-03-01")
	semiannual := newTestContract(2, domain.PlanSemiannual, "600", "2024-03-01")

	for m := 1; m <= 12; m++ {
		assertDecimal(t, "100", p.Project(annual, nil, decimal.Zero, ym(2025, m), domain.ViewMonthlyAverage).Revenue)
		assertDecimal(t, "100", p.Project(semiannual, nil, decimal.Zero, ym(2025, m), domain.ViewMonthlyAverage).Revenue)
	}
}

func TestRevenueProjector_MonthlyAverageIgnoresTrial(t *testing.T) {
	p := newTestProjector(false)
	contract := newTestContract(1, domain.PlanMonthly, "1000", "2024-01-10")
	contract.TrialDays = 30

	avg := p.Project(contract, nil, decimal.Zero, ym(2024, 1), domain.ViewMonthlyAverage)
	assertDecimal(t, "1000", avg.Revenue)
	assert.False(t, avg.IsClientBilled)

	actual := p.Project(contract, nil, decimal.Zero, ym(2024, 1), domain.ViewActualBilling)
	assertDecimal(t, "0", actual.Revenue)
}

func TestRevenueProjector_UsesEffectiveValue(t *testing.T) {
	p := newTestProjector(false)
	contract := newTestContract(1, domain.PlanMonthly, "1000", "2024-01-01")
	adjustments := []*domain.ValueAdjustment{
		{ID: 1, ContractID: 1, Kind: domain.AdjustmentPercentage, Magnitude: dec("10"), PreviousValue: dec("1000"), NewValue: dec("1100"), EffectiveDate: day("2025-01-15")},
	}

	assertDecimal(t, "1000", p.Project(contract, adjustments, decimal.Zero, ym(2024, 12), domain.ViewActualBilling).Revenue)
	// effective any day of the month applies to the whole month
	assertDecimal(t, "1100", p.Project(contract, adjustments, decimal.Zero, ym(2025, 1), domain.ViewActualBilling).Revenue)
}

func TestRevenueProjector_AddonsAddInFull(t *testing.T) {
	p := newTestProjector(false)
	contract := newTestContract(1, domain.PlanAnnual, "1200", "2024-03-01")

	got := p.Project(contract, nil, dec("50"), ym(2025, 4), domain.ViewActualBilling)
	assertDecimal(t, "0", got.BaseRevenue)
	assertDecimal(t, "50", got.AddonRevenue)
	assertDecimal(t, "50", got.Revenue)

	got = p.Project(contract, nil, dec("50"), ym(2025, 4), domain.ViewMonthlyAverage)
	assertDecimal(t, "150", got.Revenue)
}

func TestRevenueProjector_AddonCycleGating(t *testing.T) {
	p := newTestProjector(true)
	contract := newTestContract(1, domain.PlanAnnual, "1200", "2024-03-01")

	assertDecimal(t, "0", p.Project(contract, nil, dec("50"), ym(2025, 4), domain.ViewActualBilling).Revenue)
	assertDecimal(t, "1250", p.Project(contract, nil, dec("50"), ym(2025, 3), domain.ViewActualBilling).Revenue)
	// gating never applies to the average view
	assertDecimal(t, "150", p.Project(contract, nil, dec("50"), ym(2025, 4), domain.ViewMonthlyAverage).Revenue)
}

func TestRevenueProjector_TrialSuppressesAddons(t *testing.T) {
	contract := newTestContract(1, domain.PlanMonthly, "1000", "2024-01-10")
	contract.TrialDays = 60

	for _, gating := range []bool{false, true} {
		p := newTestProjector(gating)

		trial := p.Project(contract, nil, dec("250"), ym(2024, 1), domain.ViewActualBilling)
		assert.False(t, trial.IsClientBilled)
		assertDecimal(t, "0", trial.BaseRevenue)
		assertDecimal(t, "0", trial.AddonRevenue)
		assertDecimal(t, "0", trial.Revenue)

		billed := p.Project(contract, nil, dec("250"), ym(2024, 3), domain.ViewActualBilling)
		assert.True(t, billed.IsClientBilled)
		assertDecimal(t, "1250", billed.Revenue)
	}
}

func TestRevenueProjector_MonthlyRevenueLoadsLedgers(t *testing.T) {
	f := newLedgerFixture()
	contract := newTestContract(1, domain.PlanMonthly, "1000", "2024-01-01")
	f.contracts.AddContract(contract)
	f.adjustments.AddAdjustment(&domain.ValueAdjustment{
		ID: 1, WorkspaceID: testWorkspaceID, ContractID: 1, Kind: domain.AdjustmentValue,
		Magnitude: dec("1500"), NewValue: dec("1500"), EffectiveDate: day("2024-06-01"), CreatedAt: time.Now(),
	})
	f.addons.AddAddon(&domain.Addon{ID: 1, WorkspaceID: testWorkspaceID, ContractID: 1, Type: domain.AddonAdditionalService, NewValue: "R$ 1.000,50", RequestDate: day("2024-02-01")})
	f.addons.AddAddon(&domain.Addon{ID: 2, WorkspaceID: testWorkspaceID, ContractID: 1, Type: domain.AddonAdditionalService, NewValue: "mil reais", RequestDate: day("2024-02-02")})
	f.addons.AddAddon(&domain.Addon{ID: 3, WorkspaceID: testWorkspaceID, ContractID: 1, Type: domain.AddonPlanChange, NewValue: "2000", RequestDate: day("2024-02-03")})

	p := NewRevenueProjector(f.adjustments, f.addons, NewBillingCycleResolver(), false)
	got, err := p.MonthlyRevenue(contract, ym(2024, 7), domain.ViewActualBilling)
	require.NoError(t, err)

	assertDecimal(t, "1500", got.EffectiveValue)
	// the unparseable addon counts as zero and plan changes are not summed
	assertDecimal(t, "1000.50", got.AddonRevenue)
	assertDecimal(t, "2500.50", got.Revenue)
	assert.Equal(t, "2024-07", got.Month)
}
