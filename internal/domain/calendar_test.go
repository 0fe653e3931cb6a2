package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-05", "05/03/2024", "2024-03-05T14:30:00Z", "2024-03-05 08:00:00", " 2024-03-05 "} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseDate(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "2024/03/05", "31/02/2024", "March 5", "05-03-2024"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseDate(raw)
			assert.True(t, errors.Is(err, ErrUnparseableDate), "error = %v", err)
		})
	}
}

func TestNewAnalysisMonth(t *testing.T) {
	m, err := NewAnalysisMonth(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-02", m.String())

	_, err = NewAnalysisMonth(2024, 13)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewAnalysisMonth(2024, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewAnalysisMonth(1999, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalysisMonth_Arithmetic(t *testing.T) {
	jan := AnalysisMonth{Year: 2024, Month: 1}
	nov := AnalysisMonth{Year: 2023, Month: 11}

	assert.Equal(t, 2, jan.MonthsSince(nov))
	assert.Equal(t, -2, nov.MonthsSince(jan))
	assert.True(t, nov.Before(jan))
	assert.False(t, jan.Before(jan))
	assert.Equal(t, AnalysisMonth{Year: 2025, Month: 1}, jan.AddMonths(12))
	assert.Equal(t, AnalysisMonth{Year: 2023, Month: 12}, jan.AddMonths(-1))
	assert.Equal(t, AnalysisMonth{Year: 2024, Month: 3}, nov.AddMonths(4))
}

func TestAnalysisMonth_Bounds(t *testing.T) {
	feb := AnalysisMonth{Year: 2024, Month: 2}

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), feb.FirstDay())
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), feb.LastDay())
	assert.True(t, feb.Contains(time.Date(2024, time.February, 29, 23, 0, 0, 0, time.UTC)))
	assert.False(t, feb.Contains(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, feb, MonthOf(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)))
}
