package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/reporting"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ReportHandler exports the profitability analysis as CSV or PDF
type ReportHandler struct {
	reportService *service.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: time.Now}
}

// ArchivedReportResponse points at a stored report
type ArchivedReportResponse struct {
	Filename    string `json:"filename"`
	Path        string `json:"path"`
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int    `json:"expiresInSeconds"`
}

func (h *ReportHandler) parseRequest(c echo.Context) (service.ReportRequest, error) {
	var req service.ReportRequest
	var err error
	format := c.QueryParam("format")
	if format == "" {
		format = string(reporting.FormatCSV)
	}
	if req.Format, err = reporting.ParseFormat(format); err != nil {
		return req, err
	}
	if req.Month, err = monthQueryParam(c, "month", h.now()); err != nil {
		return req, err
	}
	if req.ViewMode, err = domain.ParseViewMode(c.QueryParam("viewMode")); err != nil {
		return req, err
	}
	req.Filters, err = parseProfitFilters(c)
	return req, err
}

// DownloadProfitReport handles GET /api/v1/reports/profit?format=pdf&month=2025-03
func (h *ReportHandler) DownloadProfitReport(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return respondError(c, err, "generate report")
	}

	report, err := h.reportService.Generate(c.Request().Context(), workspaceID, req)
	if err != nil {
		return respondError(c, err, "generate report")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("format", string(req.Format)).Str("month", req.Month.String()).Msg("Report generated")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename))
	return c.Blob(http.StatusOK, report.ContentType, report.Data)
}

// ArchiveProfitReport handles POST /api/v1/reports/profit/archive. The report is stored and a
// short-lived download link is returned.
func (h *ReportHandler) ArchiveProfitReport(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return respondError(c, err, "archive report")
	}

	report, err := h.reportService.GenerateAndArchive(c.Request().Context(), workspaceID, req)
	if err != nil {
		return respondError(c, err, "archive report")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("path", report.ArchivePath).Msg("Report archived")
	return c.JSON(http.StatusCreated, ArchivedReportResponse{
		Filename:    report.Filename,
		Path:        report.ArchivePath,
		DownloadURL: report.DownloadURL,
		ExpiresIn:   int(service.ReportLinkExpiry.Seconds()),
	})
}
