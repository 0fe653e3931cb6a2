package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// FinanceDefaults are the workspace-independent defaults of the profitability engine
type FinanceDefaults struct {
	// DefaultTaxRatePercent seeds the tax rate of newly created workspaces
	DefaultTaxRatePercent  decimal.Decimal
	// ExtraEmployeeUnitCost and ExtraCNPJUnitCost price overflow head counts when a cost plan has no catalog
	ExtraEmployeeUnitCost  decimal.Decimal
	ExtraCNPJUnitCost      decimal.Decimal
	// DefaultExemptionMonths seeds new cost plans
	DefaultExemptionMonths int32
}

type financeFile struct {
	DefaultTaxRatePercent  string `yaml:"default_tax_rate_percent"`
	ExtraEmployeeUnitCost  string `yaml:"extra_employee_unit_cost"`
	ExtraCNPJUnitCost      string `yaml:"extra_cnpj_unit_cost"`
	DefaultExemptionMonths *int32 `yaml:"default_exemption_months"`
}

// DefaultFinance returns the built-in defaults used when no file is configured
func DefaultFinance() FinanceDefaults {
	return FinanceDefaults{
		DefaultTaxRatePercent:  decimal.RequireFromString("6"),
		ExtraEmployeeUnitCost:  decimal.Zero,
		ExtraCNPJUnitCost:      decimal.Zero,
		DefaultExemptionMonths: 0,
	}
}

// LoadFinanceDefaults reads the YAML file at path over the built-in defaults.
// An empty path returns the built-in defaults.
func LoadFinanceDefaults(path string) (*FinanceDefaults, error) {
	defaults := DefaultFinance()
	if path == "" {
		return &defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read finance defaults: %w", err)
	}
	return parseFinanceDefaults(data, defaults)
}

func parseFinanceDefaults(data []byte, defaults FinanceDefaults) (*FinanceDefaults, error) {
	var raw financeFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse finance defaults: %w", err)
	}

	fields := []struct {
		name   string
		value  string
		target *decimal.Decimal
	}{
		{"default_tax_rate_percent", raw.DefaultTaxRatePercent, &defaults.DefaultTaxRatePercent},
		{"extra_employee_unit_cost", raw.ExtraEmployeeUnitCost, &defaults.ExtraEmployeeUnitCost},
		{"extra_cnpj_unit_cost", raw.ExtraCNPJUnitCost, &defaults.ExtraCNPJUnitCost},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return nil, fmt.Errorf("finance defaults %s: %w", f.name, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("finance defaults %s must not be negative", f.name)
		}
		*f.target = d
	}
	if defaults.DefaultTaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("finance defaults default_tax_rate_percent must not exceed 100")
	}

	if raw.DefaultExemptionMonths != nil {
		if *raw.DefaultExemptionMonths < 0 {
			return nil, fmt.Errorf("finance defaults default_exemption_months must not be negative")
		}
		defaults.DefaultExemptionMonths = *raw.DefaultExemptionMonths
	}

	return &defaults, nil
}
