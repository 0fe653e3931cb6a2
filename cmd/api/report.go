package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/margem-saas/margem-backend/internal/config"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/reporting"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var reportFlags struct {
	workspaceID int32
	month       string
	format      string
	viewMode    string
	outDir      string
	archive     bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a workspace's profitability report to a file",
	Example: `  margem-api report --workspace 3 --month 2025-03 --format pdf
  margem-api report --workspace 3 --archive`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.Int32Var(&reportFlags.workspaceID, "workspace", 0, "workspace ID (required)")
	f.StringVar(&reportFlags.month, "month", "", "analysis month as YYYY-MM (default: current month)")
	f.StringVar(&reportFlags.format, "format", string(reporting.FormatCSV), "csv or pdf")
	f.StringVar(&reportFlags.viewMode, "view-mode", string(domain.ViewMonthlyAverage), "monthly_average or actual_billing")
	f.StringVar(&reportFlags.outDir, "out", ".", "directory the report is written to")
	f.BoolVar(&reportFlags.archive, "archive", false, "also store the report in object storage and print a download link")
	_ = reportCmd.MarkFlagRequired("workspace")
}

func parseReportFlags() (service.ReportRequest, error) {
	var req service.ReportRequest
	var err error
	if req.Format, err = reporting.ParseFormat(strings.ToLower(reportFlags.format)); err != nil {
		return req, err
	}
	if req.ViewMode, err = domain.ParseViewMode(reportFlags.viewMode); err != nil {
		return req, err
	}
	req.Month = domain.MonthOf(time.Now())
	if reportFlags.month != "" {
		if req.Month, err = domain.ParseAnalysisMonth(reportFlags.month); err != nil {
			return req, err
		}
	}
	return req, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	req, err := parseReportFlags()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var report *service.GeneratedReport
	if reportFlags.archive {
		report, err = a.report.GenerateAndArchive(cmd.Context(), reportFlags.workspaceID, req)
	} else {
		report, err = a.report.Generate(cmd.Context(), reportFlags.workspaceID, req)
	}
	if err != nil {
		return err
	}

	path := filepath.Join(reportFlags.outDir, report.Filename)
	if err := os.WriteFile(path, report.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info().Int32("workspace_id", reportFlags.workspaceID).Str("path", path).Msg("Report written")
	if report.DownloadURL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), report.DownloadURL)
	}
	return nil
}
