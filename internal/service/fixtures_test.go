package service

import (
	"testing"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const testWorkspaceID int32 = 1

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ym(year, month int) domain.AnalysisMonth {
	return domain.AnalysisMonth{Year: year, Month: month}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func newTestContract(id int32, plan domain.PlanType, base string, start string) *domain.Contract {
	return &domain.Contract{
		ID:             id,
		WorkspaceID:    testWorkspaceID,
		ContractorName: "Contratante " + string(rune('A'+id-1)),
		PlanType:       plan,
		BaseValue:      dec(base),
		StartDate:      day(start),
		Status:         domain.ContractActive,
		EmployeeCount:  10,
		CNPJCount:      1,
	}
}

func newTestPlan(id int32, maxEmployees, maxCNPJs int32, cost string, billing domain.PlanType, exemption int32) *domain.CostPlan {
	return &domain.CostPlan{
		ID:                    id,
		WorkspaceID:           testWorkspaceID,
		Name:                  "Plano",
		MaxEmployees:          maxEmployees,
		MaxCNPJs:              maxCNPJs,
		BaseLicenseCost:       dec(cost),
		BillingType:           billing,
		ExemptionPeriodMonths: exemption,
	}
}

// ledgerFixture wires every repository mock the profitability services read
type ledgerFixture struct {
	workspaces   *testutil.MockWorkspaceRepository
	contracts    *testutil.MockContractRepository
	locks        *testutil.MockAdjustmentLockRepository
	adjustments  *testutil.MockValueAdjustmentRepository
	addons       *testutil.MockAddonRepository
	bankSlips    *testutil.MockBankSlipCostRepository
	costPlans    *testutil.MockCostPlanRepository
	companyCosts *testutil.MockCompanyCostRepository
}

func newLedgerFixture() *ledgerFixture {
	locks := testutil.NewMockAdjustmentLockRepository()
	f := &ledgerFixture{
		workspaces:   testutil.NewMockWorkspaceRepository(),
		contracts:    testutil.NewMockContractRepository(),
		locks:        locks,
		adjustments:  testutil.NewMockValueAdjustmentRepository(locks),
		addons:       testutil.NewMockAddonRepository(),
		bankSlips:    testutil.NewMockBankSlipCostRepository(),
		costPlans:    testutil.NewMockCostPlanRepository(),
		companyCosts: testutil.NewMockCompanyCostRepository(),
	}
	f.addons.AdjustmentRepo = f.adjustments
	f.addons.ContractRepo = f.contracts
	f.workspaces.AddWorkspace(&domain.Workspace{
		ID:             testWorkspaceID,
		Auth0ID:        "auth0|owner",
		Name:           "Margem Ltda",
		TaxRatePercent: dec("10"),
	})
	return f
}

func (f *ledgerFixture) profitService(addonCycleGating bool) *ProfitService {
	projector := NewRevenueProjector(f.adjustments, f.addons, NewBillingCycleResolver(), addonCycleGating)
	allocator := NewCostAllocator(dec("2"), dec("15"))
	return NewProfitService(
		f.workspaces, f.contracts, f.adjustments, f.addons,
		f.bankSlips, f.costPlans, f.companyCosts,
		projector, allocator,
	)
}

func (f *ledgerFixture) adjustmentService() *AdjustmentService {
	return NewAdjustmentService(f.adjustments, f.locks, f.contracts)
}
