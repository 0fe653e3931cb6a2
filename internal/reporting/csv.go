package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// CSVGenerator renders the report as CSV with plain decimal numbers so spreadsheets can sum them
type CSVGenerator struct{}

// NewCSVGenerator creates a new CSV generator
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

// Generate creates the CSV document
func (g *CSVGenerator) Generate(report *ProfitReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := g.writeHeader(w, report); err != nil {
		return nil, fmt.Errorf("write CSV header section: %w", err)
	}
	if err := g.writeSummary(w, report); err != nil {
		return nil, fmt.Errorf("write CSV summary section: %w", err)
	}
	if err := g.writeContracts(w, report); err != nil {
		return nil, fmt.Errorf("write CSV contracts section: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("CSV write error: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *CSVGenerator) writeHeader(w *csv.Writer, report *ProfitReport) error {
	rows := [][]string{
		{"# Relatório de lucratividade"},
		{"# Empresa:", report.WorkspaceName},
		{"# Mês:", report.Month.String()},
		{"# Visão:", viewModeLabel(report.ViewMode)},
		{"# Gerado em:", report.GeneratedAt.Format(time.RFC3339)},
		{""},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write header row %q: %w", row[0], err)
		}
	}
	return nil
}

func (g *CSVGenerator) writeSummary(w *csv.Writer, report *ProfitReport) error {
	if report.Summary == nil {
		return nil
	}
	s := report.Summary
	rows := [][]string{
		{"# RESUMO"},
		{"Indicador", "Valor"},
		{"Contratos", fmt.Sprintf("%d", s.ContractCount)},
		{"Meses deficitários", fmt.Sprintf("%d", s.DeficitCount)},
		{"Custos fixos da empresa", s.TotalFixedCompanyCosts.StringFixed(2)},
		{"Receita", s.TotalRevenue.StringFixed(2)},
		{"Impostos", s.TotalTax.StringFixed(2)},
		{"Fração da empresa", s.TotalCompanyFraction.StringFixed(2)},
		{"Custo de licença", s.TotalLicenseCost.StringFixed(2)},
		{"Tarifas de boleto", s.TotalBankSlipFees.StringFixed(2)},
		{"Lucro bruto", s.TotalGrossProfit.StringFixed(2)},
		{"Lucro líquido", s.TotalNetProfit.StringFixed(2)},
		{"Margem média", s.AverageProfitMargin.StringFixed(2)},
		{"Margem líquida média", s.AverageNetProfitMargin.StringFixed(2)},
		{""},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write summary row %q: %w", row[0], err)
		}
	}
	return nil
}

func (g *CSVGenerator) writeContracts(w *csv.Writer, report *ProfitReport) error {
	if err := w.Write([]string{"# CONTRATOS"}); err != nil {
		return fmt.Errorf("write contracts section heading: %w", err)
	}
	header := []string{
		"ID", "Contratante", "Plano", "Valor vigente", "Adicionais", "Receita",
		"Impostos", "Fração da empresa", "Licença", "Boleto",
		"Lucro bruto", "Lucro líquido", "Margem", "Margem líquida",
		"Faturado", "Mês de cobrança", "Déficit", "Variação", "Isenção restante", "Sem plano de custo",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write contracts column headers: %w", err)
	}

	for _, d := range report.Contracts {
		row := []string{
			fmt.Sprintf("%d", d.ContractID),
			d.ContractorName,
			string(d.PlanType),
			d.EffectiveValue.StringFixed(2),
			d.AddonRevenue.StringFixed(2),
			d.Revenue.StringFixed(2),
			d.Tax.StringFixed(2),
			d.CompanyFraction.StringFixed(2),
			d.LicenseCost.StringFixed(2),
			d.BankSlipFee.StringFixed(2),
			d.GrossProfit.StringFixed(2),
			d.NetProfit.StringFixed(2),
			d.ProfitMargin.StringFixed(2),
			d.NetProfitMargin.StringFixed(2),
			yesNo(d.IsClientBilled),
			yesNo(d.IsBillingMonth),
			yesNo(d.IsDeficitMonth),
			string(d.ValueVariation),
			fmt.Sprintf("%d", d.ExemptionMonthsRemaining),
			yesNo(d.CostPlanMissing),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write contract row %d: %w", d.ContractID, err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "sim"
	}
	return "não"
}
