package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func adjustment(id int32, effective time.Time, created time.Time, newValue string) *ValueAdjustment {
	return &ValueAdjustment{
		ID:            id,
		ContractID:    1,
		Kind:          AdjustmentValue,
		NewValue:      decimal.RequireFromString(newValue),
		EffectiveDate: effective,
		CreatedAt:     created,
	}
}

func TestResolveEffectiveValue_NoAdjustments(t *testing.T) {
	base := decimal.NewFromInt(1000)
	got := ResolveEffectiveValue(base, nil, date(2024, 6, 1))
	assert.True(t, got.Equal(base))
}

func TestResolveEffectiveValue_LatestEffectiveDateWins(t *testing.T) {
	created := date(2024, 1, 1)
	d1 := adjustment(1, date(2022, 3, 1), created, "1100")
	d2 := adjustment(2, date(2023, 3, 1), created, "1200")
	d3 := adjustment(3, date(2024, 3, 1), created, "1300")
	base := decimal.NewFromInt(1000)
	asOf := date(2024, 12, 31)

	orders := [][]*ValueAdjustment{
		{d1, d2, d3},
		{d3, d2, d1},
		{d2, d3, d1},
	}
	for _, order := range orders {
		got := ResolveEffectiveValue(base, order, asOf)
		assert.True(t, got.Equal(decimal.NewFromInt(1300)), "got %s", got)
	}
}

func TestResolveEffectiveValue_IgnoresFutureAdjustments(t *testing.T) {
	base := decimal.NewFromInt(1000)
	adjustments := []*ValueAdjustment{
		adjustment(1, date(2025, 3, 1), date(2024, 1, 1), "1100"),
		adjustment(2, date(2026, 3, 1), date(2024, 1, 1), "1200"),
	}

	got := ResolveEffectiveValue(base, adjustments, date(2024, 12, 31))
	assert.True(t, got.Equal(base))
}

func TestResolveEffectiveValue_EffectiveOnAsOfDateApplies(t *testing.T) {
	adjustments := []*ValueAdjustment{adjustment(1, date(2024, 3, 1), date(2024, 1, 1), "1100")}
	got := ResolveEffectiveValue(decimal.NewFromInt(1000), adjustments, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
	assert.True(t, got.Equal(decimal.NewFromInt(1100)))
}

func TestResolveEffectiveValue_SameDateMostRecentlyCreatedWins(t *testing.T) {
	effective := date(2024, 3, 1)
	adjustments := []*ValueAdjustment{
		adjustment(1, effective, date(2024, 2, 10), "1500"),
		adjustment(2, effective, date(2024, 2, 20), "1150"),
		adjustment(3, effective, date(2024, 2, 15), "1900"),
	}

	got := ResolveEffectiveValue(decimal.NewFromInt(1000), adjustments, date(2024, 4, 1))
	assert.True(t, got.Equal(decimal.NewFromInt(1150)), "got %s", got)
}

func TestResolveEffectiveValue_DoesNotCompoundPercentages(t *testing.T) {
	// newValue snapshots are authoritative even when they disagree with the magnitude
	adjustments := []*ValueAdjustment{
		{ID: 1, Kind: AdjustmentPercentage, Magnitude: decimal.NewFromInt(10), NewValue: decimal.NewFromInt(1100), EffectiveDate: date(2023, 1, 1), CreatedAt: date(2023, 1, 1)},
		{ID: 2, Kind: AdjustmentPercentage, Magnitude: decimal.NewFromInt(10), NewValue: decimal.NewFromInt(1200), EffectiveDate: date(2024, 1, 1), CreatedAt: date(2024, 1, 1)},
	}

	got := ResolveEffectiveValue(decimal.NewFromInt(1000), adjustments, date(2024, 6, 1))
	assert.True(t, got.Equal(decimal.NewFromInt(1200)), "got %s", got)
}

func TestResolveEffectiveValue_Idempotent(t *testing.T) {
	adjustments := []*ValueAdjustment{
		adjustment(2, date(2024, 3, 1), date(2024, 1, 1), "1300"),
		adjustment(1, date(2023, 3, 1), date(2023, 1, 1), "1200"),
	}
	base := decimal.NewFromInt(1000)
	asOf := date(2024, 5, 1)

	first := ResolveEffectiveValue(base, adjustments, asOf)
	second := ResolveEffectiveValue(base, adjustments, asOf)
	assert.True(t, first.Equal(second))
	// input order untouched
	assert.Equal(t, int32(2), adjustments[0].ID)
}

func TestComputeAdjustedValue(t *testing.T) {
	previous := decimal.NewFromInt(1000)

	got, err := ComputeAdjustedValue(previous, AdjustmentPercentage, decimal.RequireFromString("4.5"))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1045)), "got %s", got)

	got, err = ComputeAdjustedValue(previous, AdjustmentValue, decimal.NewFromInt(1250))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1250)))

	got, err = ComputeAdjustedValue(previous, AdjustmentPercentage, decimal.NewFromInt(-10))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(900)))

	_, err = ComputeAdjustedValue(previous, AdjustmentPercentage, decimal.NewFromInt(-150))
	assert.ErrorIs(t, err, ErrNegativeAdjustedValue)

	_, err = ComputeAdjustedValue(previous, AdjustmentKind("bogus"), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidAdjustmentKind)
}
