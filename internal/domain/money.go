package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseMoney normalizes a currency string into a decimal.
// Accepted forms: "1.234,56", "1234,56", "R$ 1.234,56", "1234.56", "-10,5".
// Values are pt-BR: dot thousands, comma decimal. Without a comma, several dots or a single dot
// followed by exactly three digits are thousands separators ("1.234.567", "R$ 1.500"); any other
// single dot is a decimal point ("1234.56").
func ParseMoney(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if negative {
		s = "-" + s
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrUnparseableCurrency)
	}

	if strings.Contains(s, ",") {
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseableCurrency, raw)
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if strings.Count(s, ".") > 1 || isThousandsGrouped(s) {
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseableCurrency, raw)
	}
	return d, nil
}

// isThousandsGrouped reports whether s has a single dot followed by exactly three digits
func isThousandsGrouped(s string) bool {
	intPart, group, found := strings.Cut(s, ".")
	if !found || len(group) != 3 || strings.TrimPrefix(intPart, "-") == "" {
		return false
	}
	for _, r := range group {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatMoneyBR renders a decimal in pt-BR notation with two places ("1.234,56")
func FormatMoneyBR(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() && !d.Round(2).IsZero() {
		sign = "-"
	}
	return sign + b.String() + "," + fracPart
}

// Percent returns value * pct / 100
func Percent(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(hundred)
}
