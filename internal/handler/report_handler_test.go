package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadProfitReport_CSV(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")
	c, rec := newContext(http.MethodGet, "/api/v1/reports/profit?month=2025-03", "", testWorkspaceID)

	require.NoError(t, f.report.DownloadProfitReport(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lucratividade-2025-03-monthly_average.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "# RESUMO")
	assert.Contains(t, rec.Body.String(), "Padaria")
}

func TestDownloadProfitReport_PDF(t *testing.T) {
	f := newAPIFixture(false)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")
	c, rec := newContext(http.MethodGet, "/api/v1/reports/profit?format=pdf&viewMode=actual_billing", "", testWorkspaceID)

	require.NoError(t, f.report.DownloadProfitReport(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestDownloadProfitReport_BadQuery(t *testing.T) {
	for _, query := range []string{"format=xlsx", "month=marco", "viewMode=daily"} {
		t.Run(query, func(t *testing.T) {
			f := newAPIFixture(false)
			c, rec := newContext(http.MethodGet, "/api/v1/reports/profit?"+query, "", testWorkspaceID)

			require.NoError(t, f.report.DownloadProfitReport(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestArchiveProfitReport_NoStorage(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/reports/profit/archive", "", testWorkspaceID)

	require.NoError(t, f.report.ArchiveProfitReport(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestArchiveProfitReport(t *testing.T) {
	f := newAPIFixture(true)
	f.addContract("Padaria", domain.PlanMonthly, "1000", "2024-01-01")
	c, rec := newContext(http.MethodPost, "/api/v1/reports/profit/archive?month=2025-02", "", testWorkspaceID)

	require.NoError(t, f.report.ArchiveProfitReport(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ArchivedReportResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "lucratividade-2025-02-monthly_average.csv", resp.Filename)
	assert.True(t, strings.HasPrefix(resp.Path, "1/reports/"))
	assert.True(t, strings.HasSuffix(resp.Path, "/"+resp.Filename))
	assert.NotEmpty(t, resp.DownloadURL)
	assert.Equal(t, 900, resp.ExpiresIn)
	assert.Contains(t, f.store.Objects, resp.Path)
}

func TestArchiveProfitReport_NoWorkspace(t *testing.T) {
	f := newAPIFixture(true)
	c, rec := newContext(http.MethodPost, "/api/v1/reports/profit/archive", "", 0)

	require.NoError(t, f.report.ArchiveProfitReport(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
