package handler

import (
	"net/http"
	"testing"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContract_Success(t *testing.T) {
	f := newAPIFixture(false)
	body := `{"contractorName":"Padaria Central","contractorDocument":"12.345.678/0001-90","planType":"semiannual",` +
		`"baseValue":"1.234,56","startDate":"10/01/2025","trialDays":15,"employeeCount":12,"cnpjCount":1}`
	c, rec := newContext(http.MethodPost, "/api/v1/contracts", body, testWorkspaceID)

	require.NoError(t, f.contract.CreateContract(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp ContractResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Padaria Central", resp.ContractorName)
	assert.Equal(t, "1234.56", resp.BaseValue)
	assert.Equal(t, "2025-01-10", resp.StartDate)
	assert.Equal(t, "2025-01-25", resp.BillingStart)
	require.NotNil(t, resp.RenewalDate)
	assert.Equal(t, "2026-01-10", *resp.RenewalDate)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, []string{"contract.created"}, f.publisher.Types())
}

func TestCreateContract_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad plan", `{"contractorName":"A","planType":"weekly","baseValue":"100","startDate":"2025-01-01","employeeCount":1,"cnpjCount":1}`, "planType"},
		{"missing start", `{"contractorName":"A","planType":"monthly","baseValue":"100","employeeCount":1,"cnpjCount":1}`, "startDate"},
		{"missing name", `{"contractorName":" ","planType":"monthly","baseValue":"100","startDate":"2025-01-01","employeeCount":1,"cnpjCount":1}`, "contractorName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(false)
			c, rec := newContext(http.MethodPost, "/api/v1/contracts", tt.body, testWorkspaceID)

			require.NoError(t, f.contract.CreateContract(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
			assert.Empty(t, f.contracts.Contracts)
		})
	}
}

func TestCreateContract_UnparseableValue(t *testing.T) {
	f := newAPIFixture(false)
	body := `{"contractorName":"A","planType":"monthly","baseValue":"abc","startDate":"2025-01-01","employeeCount":1,"cnpjCount":1}`
	c, rec := newContext(http.MethodPost, "/api/v1/contracts", body, testWorkspaceID)

	require.NoError(t, f.contract.CreateContract(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateContract_RequiresWorkspace(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/contracts", `{}`, 0)

	require.NoError(t, f.contract.CreateContract(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetContract_NotFound(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodGet, "/api/v1/contracts/99", "", testWorkspaceID)
	withParams(c, "id", "99")

	require.NoError(t, f.contract.GetContract(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetContract_InvalidID(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodGet, "/api/v1/contracts/abc", "", testWorkspaceID)
	withParams(c, "id", "abc")

	require.NoError(t, f.contract.GetContract(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContract_OtherWorkspace(t *testing.T) {
	f := newAPIFixture(false)
	contract := f.addContract("Padaria", domain.PlanMonthly, "500", "2025-01-01")
	contract.WorkspaceID = 2

	c, rec := newContext(http.MethodGet, "/api/v1/contracts/1", "", testWorkspaceID)
	withParams(c, "id", "1")

	require.NoError(t, f.contract.GetContract(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteContract(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "500", "2025-01-01")
	c, rec := newContext(http.MethodDelete, "/api/v1/contracts/1", "", testWorkspaceID)
	withParams(c, "id", "1")

	require.NoError(t, f.contract.DeleteContract(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.contracts.Contracts)
}

func TestImportContracts_SkipsBadRows(t *testing.T) {
	f := newAPIFixture(false)
	body := `{"records":[` +
		`{"contractorName":"Padaria","planType":"monthly","baseValue":"R$ 500,00","startDate":"01/02/2025","employeeCount":"5","cnpjCount":"1"},` +
		`{"contractorName":"Oficina","planType":"monthly","baseValue":"nada","startDate":"01/02/2025","employeeCount":"5","cnpjCount":"1"}]}`
	c, rec := newContext(http.MethodPost, "/api/v1/contracts/import", body, testWorkspaceID)

	require.NoError(t, f.contract.ImportContracts(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ImportContractsResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Imported, 1)
	assert.Equal(t, "500.00", resp.Imported[0].BaseValue)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, 2, resp.Skipped[0].Row)
}

func TestImportContracts_EmptyBody(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/contracts/import", `{"records":[]}`, testWorkspaceID)

	require.NoError(t, f.contract.ImportContracts(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUpcomingRenewals(t *testing.T) {
	f := newAPIFixture(false)
	// renews 2025-04-01, within 30 days of 2025-03-15
	f.addContract("Soon", domain.PlanMonthly, "500", "2024-04-01")
	// renews 2025-09-01
	f.addContract("Later", domain.PlanMonthly, "500", "2024-09-01")

	c, rec := newContext(http.MethodGet, "/api/v1/contracts/renewals?days=30", "", testWorkspaceID)
	require.NoError(t, f.contract.GetUpcomingRenewals(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []ContractResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "Soon", resp[0].ContractorName)
}

func TestGetUpcomingRenewals_InvalidDays(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodGet, "/api/v1/contracts/renewals?days=500", "", testWorkspaceID)

	require.NoError(t, f.contract.GetUpcomingRenewals(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEffectiveValue_FoldsAdjustments(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")

	create, rec := newContext(http.MethodPost, "/api/v1/contracts/1/adjustments",
		`{"kind":"percentage","magnitude":"10","effectiveDate":"2025-01-01"}`, testWorkspaceID)
	withParams(create, "id", "1")
	require.NoError(t, f.adjustment.CreateAdjustment(create))
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		date     string
		expected string
	}{
		{"2024-12-31", "1000.00"},
		{"2025-01-01", "1100.00"},
		{"31/03/2025", "1100.00"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/v1/contracts/1/effective-value?date="+tt.date, "", testWorkspaceID)
			withParams(c, "id", "1")

			require.NoError(t, f.contract.GetEffectiveValue(c))
			require.Equal(t, http.StatusOK, rec.Code)
			var resp EffectiveValueResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, tt.expected, resp.EffectiveValue)
		})
	}
}

func TestGetRenewalDate(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanAnnual, "1000", "2024-02-29")

	c, rec := newContext(http.MethodGet, "/api/v1/contracts/1/renewal-date?year=2025", "", testWorkspaceID)
	withParams(c, "id", "1")

	require.NoError(t, f.contract.GetRenewalDate(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RenewalDateResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2025, resp.Year)
	assert.Equal(t, "2025-02-28", resp.RenewalDate)
}
