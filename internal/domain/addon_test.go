package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestSumAddonRevenue_ExcludesPlanChangeAndAdjustment(t *testing.T) {
	addons := []*Addon{
		{ID: 1, Type: AddonAdditionalService, NewValue: "150,00"},
		{ID: 2, Type: AddonValueAdjustment, NewValue: "R$ 1.000,50"},
		{ID: 3, Type: AddonPlanChange, NewValue: "5.000,00"},
		{ID: 4, Type: AddonAdjustment, NewValue: "9.999,00"},
	}

	total, anomalies := SumAddonRevenue(addons)
	assert.True(t, total.Equal(decimal.RequireFromString("1150.50")), "got %s", total)
	assert.Empty(t, anomalies)
}

func TestSumAddonRevenue_UnparseableCountsAsZero(t *testing.T) {
	addons := []*Addon{
		{ID: 1, Type: AddonAdditionalService, NewValue: "100,00"},
		{ID: 2, Type: AddonAdditionalService, NewValue: "cem reais"},
	}

	total, anomalies := SumAddonRevenue(addons)
	assert.True(t, total.Equal(decimal.NewFromInt(100)))
	if assert.Len(t, anomalies, 1) {
		assert.Equal(t, int32(2), anomalies[0].Addon.ID)
		assert.ErrorIs(t, anomalies[0].Err, ErrUnparseableCurrency)
	}
}

func TestClassifyValueVariation(t *testing.T) {
	march := AnalysisMonth{Year: 2024, Month: 3}
	inMarch := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	inApril := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	upgrade := &Addon{ID: 1, Type: AddonPlanChange, PreviousValue: strPtr("1.000,00"), NewValue: "1.500,00", RequestDate: inMarch}
	downgrade := &Addon{ID: 2, Type: AddonPlanChange, PreviousValue: strPtr("1.500,00"), NewValue: "900,00", RequestDate: inMarch}
	adj := &ValueAdjustment{ID: 1, EffectiveDate: inMarch}
	planPrice := &ValueAdjustment{ID: 2, EffectiveDate: inMarch, Source: AdjustmentSourcePlanChange}

	tests := []struct {
		name        string
		adjustments []*ValueAdjustment
		addons      []*Addon
		expected    ValueVariation
	}{
		{"nothing happened", nil, nil, VariationNone},
		{"adjustment in month", []*ValueAdjustment{adj}, nil, VariationAdjustment},
		{"adjustment takes precedence", []*ValueAdjustment{adj}, []*Addon{upgrade}, VariationAdjustment},
		{"upgrade", nil, []*Addon{upgrade}, VariationUpgrade},
		{"plan change price is not a reajuste", []*ValueAdjustment{planPrice}, []*Addon{upgrade}, VariationUpgrade},
		{"manual reajuste beside plan change price", []*ValueAdjustment{planPrice, adj}, []*Addon{upgrade}, VariationAdjustment},
		{"downgrade", nil, []*Addon{downgrade}, VariationDowngrade},
		{"adjustment in other month", []*ValueAdjustment{{EffectiveDate: inApril}}, nil, VariationNone},
		{"plan change in other month", nil, []*Addon{{Type: AddonPlanChange, PreviousValue: strPtr("1"), NewValue: "2", RequestDate: inApril}}, VariationNone},
		{"unchanged value", nil, []*Addon{{Type: AddonPlanChange, PreviousValue: strPtr("1.000,00"), NewValue: "1000", RequestDate: inMarch}}, VariationNone},
		{"non plan-change addon ignored", nil, []*Addon{{Type: AddonAdditionalService, PreviousValue: strPtr("1"), NewValue: "2", RequestDate: inMarch}}, VariationNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyValueVariation(tt.adjustments, tt.addons, march))
		})
	}
}

func TestClassifyValueVariation_FirstChronologicalPlanChangeWins(t *testing.T) {
	march := AnalysisMonth{Year: 2024, Month: 3}
	early := &Addon{ID: 1, Type: AddonPlanChange, PreviousValue: strPtr("1000"), NewValue: "800", RequestDate: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}
	late := &Addon{ID: 2, Type: AddonPlanChange, PreviousValue: strPtr("800"), NewValue: "1200", RequestDate: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, VariationDowngrade, ClassifyValueVariation(nil, []*Addon{late, early}, march))
}
