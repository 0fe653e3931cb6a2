package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"pt-BR with thousands", "1.234,56", "1234.56"},
		{"pt-BR without thousands", "1234,56", "1234.56"},
		{"currency prefix", "R$ 1.234,56", "1234.56"},
		{"currency prefix without space", "R$99,90", "99.9"},
		{"plain decimal literal", "1234.56", "1234.56"},
		{"single dot with three digits is thousands", "1.234", "1234"},
		{"currency prefix with thousands only", "R$ 1.500", "1500"},
		{"ten thousands", "12.000", "12000"},
		{"negative thousands", "-1.500", "-1500"},
		{"single dot with two digits is decimal", "99.90", "99.9"},
		{"thousands only", "1.234.567", "1234567"},
		{"integer", "1000", "1000"},
		{"negative pt-BR", "-10,5", "-10.5"},
		{"surrounding spaces", "  250,00 ", "250"},
		{"non-breaking space", "R$\u00a01.000,00", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.raw)
			if err != nil {
				t.Fatalf("ParseMoney(%q) returned error: %v", tt.raw, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestParseMoney_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "1,2,3", "R$", "12,3x"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseMoney(raw)
			if !errors.Is(err, ErrUnparseableCurrency) {
				t.Errorf("ParseMoney(%q) error = %v, want ErrUnparseableCurrency", raw, err)
			}
		})
	}
}

func TestFormatMoneyBR(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"0", "0,00"},
		{"12.5", "12,50"},
		{"1234.56", "1.234,56"},
		{"1234567.891", "1.234.567,89"},
		{"-1500", "-1.500,00"},
		{"100", "100,00"},
	}

	for _, tt := range tests {
		got := FormatMoneyBR(decimal.RequireFromString(tt.value))
		if got != tt.expected {
			t.Errorf("FormatMoneyBR(%s) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestParseMoney_FormatRoundTrip(t *testing.T) {
	original := decimal.RequireFromString("98765.43")
	parsed, err := ParseMoney(FormatMoneyBR(original))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("round trip = %s, want %s", parsed, original)
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(1000), decimal.RequireFromString("5.5"))
	if !got.Equal(decimal.NewFromInt(55)) {
		t.Errorf("Percent(1000, 5.5) = %s, want 55", got)
	}
}
