package handler

import (
	"net/http"
	"testing"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAddon(t *testing.T, f *apiFixture, body string) (*AddonResponse, int) {
	t.Helper()
	c, rec := newContext(http.MethodPost, "/api/v1/contracts/1/addons", body, testWorkspaceID)
	withParams(c, "id", "1")
	require.NoError(t, f.addon.CreateAddon(c))
	if rec.Code != http.StatusCreated {
		return nil, rec.Code
	}
	var resp AddonResponse
	decodeBody(t, rec, &resp)
	return &resp, rec.Code
}

func TestCreateAddon_AdditionalServiceCountsAsRevenue(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")

	resp, code := createAddon(t, f, `{"type":"additional_service","description":"Módulo fiscal","newValue":"R$ 150,00","requestedBy":"Ana","requestDate":"02/03/2025"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, resp.CountsAsRevenue)
	assert.Equal(t, "R$ 150,00", resp.NewValue)
	assert.Equal(t, "2025-03-02", resp.RequestDate)

	c, rec := newContext(http.MethodGet, "/api/v1/contracts/1/addons/revenue", "", testWorkspaceID)
	withParams(c, "id", "1")
	require.NoError(t, f.addon.GetAddonRevenue(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var revenue AddonRevenueResponse
	decodeBody(t, rec, &revenue)
	assert.Equal(t, "150.00", revenue.AddonRevenue)
}

func TestCreateAddon_PlanChangeSyncsContract(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")

	resp, code := createAddon(t, f, `{"type":"plan_change","newValue":"1.300,00","requestedBy":"Ana","requestDate":"2025-03-01",`+
		`"planChangeDetails":{"newPlanType":"annual","newEmployeeCount":40}}`)
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, resp.CountsAsRevenue)

	contract := f.contracts.Contracts[1]
	assert.Equal(t, domain.PlanAnnual, contract.PlanType)
	assert.Equal(t, int32(40), contract.EmployeeCount)
	assert.Contains(t, f.publisher.Types(), "contract.updated")

	c, rec := newContext(http.MethodGet, "/api/v1/contracts/1/adjustments", "", testWorkspaceID)
	withParams(c, "id", "1")
	require.NoError(t, f.adjustment.GetAdjustments(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var adjustments []AdjustmentResponse
	decodeBody(t, rec, &adjustments)
	require.Len(t, adjustments, 1)
	assert.Equal(t, "1300.00", adjustments[0].NewValue)
	assert.Equal(t, "2025-03-01", adjustments[0].EffectiveDate)
	assert.Equal(t, "plan_change", adjustments[0].Source)
}

func TestCreateAddon_AdjustmentRespectsLocks(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")
	require.NotNil(t, lockYear(t, f, "1", "2025", `{"locked":true}`))

	_, code := createAddon(t, f, `{"type":"adjustment","newValue":"1100","requestedBy":"Ana","requestDate":"2025-03-01"}`)
	assert.Equal(t, http.StatusLocked, code)
	assert.Empty(t, f.addons.Addons)

	resp, code := createAddon(t, f, `{"type":"adjustment","newValue":"1100","requestedBy":"Ana","requestDate":"2026-03-01"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, resp.CountsAsRevenue)
	assert.Len(t, f.adjustments.Adjustments, 1)
}

func TestCreateAddon_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad type", `{"type":"gift","newValue":"10","requestedBy":"Ana","requestDate":"2025-03-01"}`, "type"},
		{"no requester", `{"type":"additional_service","newValue":"10","requestDate":"2025-03-01"}`, "requestedBy"},
		{"no value", `{"type":"additional_service","requestedBy":"Ana","requestDate":"2025-03-01"}`, "newValue"},
		{"no date", `{"type":"additional_service","newValue":"10","requestedBy":"Ana"}`, "requestDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(false)
			f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")
			c, rec := newContext(http.MethodPost, "/api/v1/contracts/1/addons", tt.body, testWorkspaceID)
			withParams(c, "id", "1")

			require.NoError(t, f.addon.CreateAddon(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
		})
	}
}

func TestDeleteAddon_WrongContract(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")
	f.addContract("Oficina", domain.PlanMonthly, "500", "2024-01-01")
	_, code := createAddon(t, f, `{"type":"additional_service","newValue":"10","requestedBy":"Ana","requestDate":"2025-03-01"}`)
	require.Equal(t, http.StatusCreated, code)

	c, rec := newContext(http.MethodDelete, "/api/v1/contracts/2/addons/1", "", testWorkspaceID)
	withParams(c, "id", "2", "addonId", "1")
	require.NoError(t, f.addon.DeleteAddon(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, f.addons.Addons, 1)
}
