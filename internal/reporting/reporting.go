package reporting

import (
	"fmt"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Format is the output format of a report
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf"
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: unknown report format %q", domain.ErrInvalidInput, raw)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// ProfitReport is everything a profitability export renders
type ProfitReport struct {
	WorkspaceName string
	Month         domain.AnalysisMonth
	ViewMode      domain.ViewMode
	GeneratedAt   time.Time
	Summary       *domain.ProfitSummary
	Contracts     []*domain.ContractProfitDetail
	// Logo is an optional JPEG rendered on the PDF cover
	Logo []byte
}

// Generator renders a report in one format
type Generator interface {
	Generate(report *ProfitReport) ([]byte, error)
}

// NewGenerator returns the generator for format
func NewGenerator(format Format) (Generator, error) {
	switch format {
	case FormatCSV:
		return NewCSVGenerator(), nil
	case FormatPDF:
		return NewPDFGenerator(), nil
	}
	return nil, fmt.Errorf("%w: unknown report format %q", domain.ErrInvalidInput, format)
}

// Filename is the suggested download name for a report
func Filename(report *ProfitReport, format Format) string {
	return fmt.Sprintf("lucratividade-%s-%s.%s", report.Month.String(), report.ViewMode, format)
}

func viewModeLabel(mode domain.ViewMode) string {
	if mode == domain.ViewActualBilling {
		return "Faturamento real"
	}
	return "Média mensal"
}

func planLabel(plan domain.PlanType) string {
	switch plan {
	case domain.PlanAnnual:
		return "Anual"
	case domain.PlanSemiannual:
		return "Semestral"
	}
	return "Mensal"
}

func brl(d decimal.Decimal) string {
	return "R$ " + domain.FormatMoneyBR(d)
}

func pct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}
