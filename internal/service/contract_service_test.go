package service

import (
	"testing"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupContractService() (*ContractService, *testutil.MockContractRepository, *testutil.MockCostPlanRepository, *testutil.MockEventPublisher) {
	contractRepo := testutil.NewMockContractRepository()
	costPlanRepo := testutil.NewMockCostPlanRepository()
	svc := NewContractService(contractRepo, costPlanRepo)
	publisher := testutil.NewMockEventPublisher()
	svc.SetEventPublisher(publisher)
	return svc, contractRepo, costPlanRepo, publisher
}

func validContractInput() ContractInput {
	return ContractInput{
		ContractorName:     "  Padaria Pão Quente  ",
		ContractorDocument: "12.345.678/0001-90",
		PlanType:           domain.PlanSemiannual,
		BaseValue:          "R$ 3.600,00",
		StartDate:          "10/01/2024",
		TrialDays:          15,
		EmployeeCount:      12,
		CNPJCount:          1,
	}
}

func TestContractService_Create(t *testing.T) {
	svc, _, _, publisher := setupContractService()

	contract, err := svc.CreateContract(testWorkspaceID, validContractInput())
	require.NoError(t, err)

	assert.Equal(t, "Padaria Pão Quente", contract.ContractorName)
	assertDecimal(t, "3600", contract.BaseValue)
	assert.Equal(t, day("2024-01-10"), contract.StartDate)
	assert.Equal(t, domain.ContractActive, contract.Status)
	require.NotNil(t, contract.RenewalDate)
	assert.Equal(t, day("2025-01-10"), *contract.RenewalDate)
	assert.Equal(t, []string{"contract.created"}, publisher.Types())
}

func TestContractService_CreateValidation(t *testing.T) {
	svc, repo, _, _ := setupContractService()

	tests := []struct {
		name   string
		mutate func(in *ContractInput)
		err    error
	}{
		{"missing name", func(in *ContractInput) { in.ContractorName = " " }, domain.ErrContractorNameRequired},
		{"bad plan", func(in *ContractInput) { in.PlanType = "quarterly" }, domain.ErrInvalidPlanType},
		{"bad value", func(in *ContractInput) { in.BaseValue = "três mil" }, domain.ErrUnparseableCurrency},
		{"negative value", func(in *ContractInput) { in.BaseValue = "-1" }, domain.ErrContractValueInvalid},
		{"missing start", func(in *ContractInput) { in.StartDate = "" }, domain.ErrStartDateRequired},
		{"bad start", func(in *ContractInput) { in.StartDate = "2024-13-01" }, domain.ErrUnparseableDate},
		{"renewal before start", func(in *ContractInput) { in.RenewalDate = strPtr("2023-12-31") }, domain.ErrRenewalBeforeStart},
		{"unknown cost plan", func(in *ContractInput) { id := int32(3); in.CostPlanID = &id }, domain.ErrCostPlanNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validContractInput()
			tt.mutate(&input)
			_, err := svc.CreateContract(testWorkspaceID, input)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Empty(t, repo.Contracts)
}

func TestContractService_UpdateKeepsStatus(t *testing.T) {
	svc, _, costPlans, _ := setupContractService()
	costPlans.AddPlan(newTestPlan(4, 50, 5, "100", domain.PlanMonthly, 0))

	created, err := svc.CreateContract(testWorkspaceID, validContractInput())
	require.NoError(t, err)
	inactive := domain.ContractInactive
	input := validContractInput()
	input.Status = &inactive
	_, err = svc.UpdateContract(testWorkspaceID, created.ID, input)
	require.NoError(t, err)

	input = validContractInput()
	input.BaseValue = "4000"
	planID := int32(4)
	input.CostPlanID = &planID
	updated, err := svc.UpdateContract(testWorkspaceID, created.ID, input)
	require.NoError(t, err)

	assert.Equal(t, domain.ContractInactive, updated.Status)
	assertDecimal(t, "4000", updated.BaseValue)
	assert.Equal(t, int32(4), *updated.CostPlanID)

	_, err = svc.UpdateContract(testWorkspaceID, 77, input)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestContractService_Delete(t *testing.T) {
	svc, repo, _, publisher := setupContractService()
	created, err := svc.CreateContract(testWorkspaceID, validContractInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteContract(testWorkspaceID, created.ID))
	assert.Empty(t, repo.Contracts)
	assert.ErrorIs(t, svc.DeleteContract(testWorkspaceID, created.ID), domain.ErrContractNotFound)
	assert.Equal(t, []string{"contract.created", "contract.deleted"}, publisher.Types())
}

func TestContractService_NextRenewalDate(t *testing.T) {
	svc, repo, _, _ := setupContractService()
	contract := newTestContract(1, domain.PlanAnnual, "1200", "2023-05-31")
	renewal := day("2024-02-29")
	contract.RenewalDate = &renewal
	repo.AddContract(contract)

	next, err := svc.NextRenewalDate(testWorkspaceID, 1, 2026)
	require.NoError(t, err)
	assert.Equal(t, day("2026-02-28"), next)

	next, err = svc.NextRenewalDate(testWorkspaceID, 1, 2028)
	require.NoError(t, err)
	assert.Equal(t, day("2028-02-29"), next)
}

func TestContractService_RollRenewalDates(t *testing.T) {
	svc, repo, _, _ := setupContractService()
	passed := newTestContract(1, domain.PlanAnnual, "1200", "2023-03-10")
	r1 := day("2024-03-10")
	passed.RenewalDate = &r1
	laterThisYear := newTestContract(2, domain.PlanAnnual, "1200", "2023-11-20")
	r2 := day("2024-11-20")
	laterThisYear.RenewalDate = &r2
	earlierThisYear := newTestContract(3, domain.PlanAnnual, "1200", "2022-01-05")
	r3 := day("2023-01-05")
	earlierThisYear.RenewalDate = &r3
	inactive := newTestContract(4, domain.PlanAnnual, "1200", "2022-01-05")
	inactive.Status = domain.ContractInactive
	r4 := day("2023-01-05")
	inactive.RenewalDate = &r4
	for _, c := range []*domain.Contract{passed, laterThisYear, earlierThisYear, inactive} {
		repo.AddContract(c)
	}

	rolled, err := svc.RollRenewalDates(testWorkspaceID, day("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, rolled)

	assert.Equal(t, day("2025-03-10"), *repo.Contracts[1].RenewalDate)
	assert.Equal(t, day("2024-11-20"), *repo.Contracts[2].RenewalDate)
	assert.Equal(t, day("2025-01-05"), *repo.Contracts[3].RenewalDate)
	assert.Equal(t, day("2023-01-05"), *repo.Contracts[4].RenewalDate)
}

func TestContractService_UpcomingRenewals(t *testing.T) {
	svc, repo, _, _ := setupContractService()
	soon := newTestContract(1, domain.PlanAnnual, "1200", "2023-06-20")
	r1 := day("2024-06-20")
	soon.RenewalDate = &r1
	far := newTestContract(2, domain.PlanAnnual, "1200", "2023-09-01")
	r2 := day("2024-09-01")
	far.RenewalDate = &r2
	repo.AddContract(soon)
	repo.AddContract(far)

	upcoming, err := svc.UpcomingRenewals(testWorkspaceID, day("2024-06-01"), 30)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, int32(1), upcoming[0].ID)
}

func TestContractService_ImportIsolatesBadRecords(t *testing.T) {
	svc, repo, _, publisher := setupContractService()

	records := []ContractRecord{
		{ContractorName: "Mercado Bom Preço", PlanType: "Monthly", BaseValue: "1.234,56", StartDate: "2024-02-01", EmployeeCount: "8"},
		{ContractorName: "Oficina do Zé", PlanType: "annual", BaseValue: "doze mil", StartDate: "2024-02-01"},
		{ContractorName: "Clínica Sorriso", PlanType: "semiannual", BaseValue: "6000", StartDate: "31/02/2024"},
		{ContractorName: "Escola Aprender", PlanType: "annual", BaseValue: "12000", StartDate: "01/03/2024", TrialDays: "trinta"},
		{ContractorName: "Hotel Serra", PlanType: "annual", BaseValue: "R$ 24.000,00", StartDate: "15/03/2024", TrialDays: "30", CNPJCount: "2"},
	}

	result, err := svc.ImportContracts(testWorkspaceID, records)
	require.NoError(t, err)

	require.Len(t, result.Imported, 2)
	assert.Equal(t, "Mercado Bom Preço", result.Imported[0].ContractorName)
	assert.Equal(t, domain.PlanMonthly, result.Imported[0].PlanType)
	assertDecimal(t, "1234.56", result.Imported[0].BaseValue)
	assert.Equal(t, int32(30), result.Imported[1].TrialDays)

	require.Len(t, result.Skipped, 3)
	assert.Equal(t, 2, result.Skipped[0].Row)
	assert.Equal(t, 3, result.Skipped[1].Row)
	assert.Equal(t, 4, result.Skipped[2].Row)
	assert.Len(t, repo.Contracts, 2)
	assert.Equal(t, []string{"contract.imported"}, publisher.Types())
}
