package reporting

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/margem-saas/margem-backend/internal/domain"
)

var (
	colorPrimary     = [3]int{22, 78, 99}
	colorDanger      = [3]int{192, 57, 43}
	colorPositive    = [3]int{39, 174, 96}
	colorTextDark    = [3]int{44, 62, 80}
	colorTextMuted   = [3]int{127, 140, 141}
	colorBackground  = [3]int{248, 249, 250}
	colorTableHeader = [3]int{22, 78, 99}
	colorTableAlt    = [3]int{241, 245, 249}
	colorDeficitRow  = [3]int{253, 237, 236}
	colorGridLine    = [3]int{220, 220, 220}
)

const logoImageName = "workspace-logo"

// PDFGenerator renders the report as a landscape A4 PDF
type PDFGenerator struct{}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

type contractColumn struct {
	title string
	width float64
	align string
	value func(d *domain.ContractProfitDetail) string
}

var contractColumns = []contractColumn{
	{"Contratante", 58, "L", func(d *domain.ContractProfitDetail) string { return truncate(d.ContractorName, 32) }},
	{"Plano", 18, "C", func(d *domain.ContractProfitDetail) string { return planLabel(d.PlanType) }},
	{"Receita", 26, "R", func(d *domain.ContractProfitDetail) string { return brl(d.Revenue) }},
	{"Licença", 24, "R", func(d *domain.ContractProfitDetail) string { return brl(d.LicenseCost) }},
	{"Fração", 24, "R", func(d *domain.ContractProfitDetail) string { return brl(d.CompanyFraction) }},
	{"Impostos", 22, "R", func(d *domain.ContractProfitDetail) string { return brl(d.Tax) }},
	{"Boleto", 18, "R", func(d *domain.ContractProfitDetail) string { return brl(d.BankSlipFee) }},
	{"Lucro líquido", 27, "R", func(d *domain.ContractProfitDetail) string { return brl(d.NetProfit) }},
	{"Margem líq.", 20, "R", func(d *domain.ContractProfitDetail) string { return pct(d.NetProfitMargin) }},
	{"Situação", 20, "C", statusLabel},
}

// Generate creates the PDF document
func (g *PDFGenerator) Generate(report *ProfitReport) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	g.writeCoverPage(pdf, tr, report)

	pdf.AddPage()
	g.addPageHeader(pdf, tr, report, "Resumo")
	g.writeSummary(pdf, tr, report)

	pdf.AddPage()
	g.addPageHeader(pdf, tr, report, "Contratos")
	g.writeContracts(pdf, tr, report)

	g.addPageNumbers(pdf, tr)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("PDF render error: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) writeCoverPage(pdf *fpdf.Fpdf, tr func(string) string, report *ProfitReport) {
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.Rect(0, 0, pageWidth, 8, "F")

	y := 40.0
	if len(report.Logo) > 0 {
		opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: true}
		info := pdf.RegisterImageOptionsReader(logoImageName, opts, bytes.NewReader(report.Logo))
		if info != nil && !pdf.Err() {
			width := 50.0
			height := width * info.Height() / info.Width()
			pdf.ImageOptions(logoImageName, (pageWidth-width)/2, y, width, height, false, opts, 0, "")
			y += height + 10
		} else {
			// a broken logo must not cost the whole report
			pdf.ClearError()
		}
	}

	pdf.SetY(y + 10)
	pdf.SetFont("Arial", "B", 28)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 12, tr("Relatório de Lucratividade"), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 8, tr(report.WorkspaceName), "", 1, "C", false, 0, "")

	pdf.Ln(10)
	boxX := 70.0
	boxWidth := pageWidth - 140
	pdf.SetFillColor(colorBackground[0], colorBackground[1], colorBackground[2])
	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	pdf.RoundedRect(boxX, pdf.GetY(), boxWidth, 30, 3, "1234", "FD")

	pdf.SetY(pdf.GetY() + 5)
	lines := []string{
		fmt.Sprintf("Mês analisado: %s", report.Month.String()),
		fmt.Sprintf("Visão: %s", viewModeLabel(report.ViewMode)),
		fmt.Sprintf("Gerado em: %s", report.GeneratedAt.Format("02/01/2006 15:04")),
	}
	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	for _, line := range lines {
		pdf.CellFormat(0, 7, tr(line), "", 1, "C", false, 0, "")
	}
}

func (g *PDFGenerator) addPageHeader(pdf *fpdf.Fpdf, tr func(string) string, report *ProfitReport, section string) {
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetDrawColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 15, pageWidth-20, 15)

	pdf.SetY(18)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 5, tr("RELATÓRIO DE LUCRATIVIDADE"), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s · %s", report.Month.String(), viewModeLabel(report.ViewMode))), "", 1, "R", false, 0, "")

	pdf.SetY(28)
	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
	pdf.CellFormat(0, 10, tr(section), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (g *PDFGenerator) writeSummary(pdf *fpdf.Fpdf, tr func(string) string, report *ProfitReport) {
	s := report.Summary
	if s == nil {
		return
	}

	rows := [][2]string{
		{"Contratos analisados", fmt.Sprintf("%d", s.ContractCount)},
		{"Meses deficitários", fmt.Sprintf("%d", s.DeficitCount)},
		{"Custos fixos da empresa", brl(s.TotalFixedCompanyCosts)},
		{"Receita total", brl(s.TotalRevenue)},
		{"Custo de licença", brl(s.TotalLicenseCost)},
		{"Fração da empresa", brl(s.TotalCompanyFraction)},
		{"Impostos", brl(s.TotalTax)},
		{"Tarifas de boleto", brl(s.TotalBankSlipFees)},
		{"Lucro bruto", brl(s.TotalGrossProfit)},
		{"Lucro líquido", brl(s.TotalNetProfit)},
		{"Margem média", pct(s.AverageProfitMargin)},
		{"Margem líquida média", pct(s.AverageNetProfitMargin)},
	}

	pdf.SetFont("Arial", "", 11)
	for i, row := range rows {
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
		}
		pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
		pdf.CellFormat(90, 8, tr(row[0]), "", 0, "L", fill, 0, "")
		pdf.CellFormat(60, 8, tr(row[1]), "", 1, "R", fill, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 12)
	color := colorPositive
	if s.TotalNetProfit.IsNegative() {
		color = colorDanger
	}
	pdf.SetTextColor(color[0], color[1], color[2])
	pdf.CellFormat(150, 8, tr(fmt.Sprintf("Resultado líquido do mês: %s", brl(s.TotalNetProfit))), "", 1, "L", false, 0, "")
}

func (g *PDFGenerator) writeContracts(pdf *fpdf.Fpdf, tr func(string) string, report *ProfitReport) {
	if len(report.Contracts) == 0 {
		pdf.SetFont("Arial", "", 11)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 8, tr("Nenhum contrato corresponde aos filtros."), "", 1, "L", false, 0, "")
		return
	}

	writeHeader := func() {
		pdf.SetFillColor(colorTableHeader[0], colorTableHeader[1], colorTableHeader[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Arial", "B", 8)
		for _, col := range contractColumns {
			pdf.CellFormat(col.width, 7, tr(col.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	writeHeader()

	_, pageHeight := pdf.GetPageSize()
	pdf.SetFont("Arial", "", 8)
	for i, d := range report.Contracts {
		if pdf.GetY() > pageHeight-35 {
			pdf.AddPage()
			g.addPageHeader(pdf, tr, report, "Contratos (cont.)")
			writeHeader()
			pdf.SetFont("Arial", "", 8)
		}

		switch {
		case d.IsDeficitMonth:
			pdf.SetFillColor(colorDeficitRow[0], colorDeficitRow[1], colorDeficitRow[2])
		case i%2 == 1:
			pdf.SetFillColor(colorTableAlt[0], colorTableAlt[1], colorTableAlt[2])
		default:
			pdf.SetFillColor(255, 255, 255)
		}
		for _, col := range contractColumns {
			pdf.SetTextColor(colorTextDark[0], colorTextDark[1], colorTextDark[2])
			if col.title == "Lucro líquido" && d.NetProfit.IsNegative() {
				pdf.SetTextColor(colorDanger[0], colorDanger[1], colorDanger[2])
			}
			pdf.CellFormat(col.width, 6, tr(col.value(d)), "1", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
	pdf.MultiCell(0, 4, tr("Linhas destacadas indicam meses deficitários: custo alocado sem receita no período. "+
		"\"Isenção\" indica contratos ainda dentro do período de isenção de licença."), "", "L", false)
}

func (g *PDFGenerator) addPageNumbers(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetAutoPageBreak(false, 0)

	totalPages := pdf.PageCount()
	for i := 2; i <= totalPages; i++ {
		pdf.SetPage(i)
		pageWidth, pageHeight := pdf.GetPageSize()

		pdf.SetY(pageHeight - 15)
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(colorTextMuted[0], colorTextMuted[1], colorTextMuted[2])
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Página %d de %d", i-1, totalPages-1)), "", 0, "C", false, 0, "")

		pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pageHeight-20, pageWidth-20, pageHeight-20)
	}
}

func statusLabel(d *domain.ContractProfitDetail) string {
	switch {
	case d.IsDeficitMonth:
		return "Déficit"
	case d.CostPlanMissing:
		return "Sem plano"
	case d.ExemptionMonthsRemaining > 0:
		return "Isenção"
	case !d.IsClientBilled:
		return "Trial"
	}
	return "OK"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
