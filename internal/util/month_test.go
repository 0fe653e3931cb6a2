package util

import (
	"testing"
	"time"
)

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name     string
		from     [2]int
		to       [2]int
		expected int
	}{
		{"same month", [2]int{2024, 3}, [2]int{2024, 3}, 0},
		{"later in same year", [2]int{2024, 1}, [2]int{2024, 4}, 3},
		{"across year boundary", [2]int{2023, 11}, [2]int{2024, 2}, 3},
		{"full year", [2]int{2024, 3}, [2]int{2025, 3}, 12},
		{"earlier month is negative", [2]int{2024, 5}, [2]int{2024, 2}, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthsBetween(tt.from[0], tt.from[1], tt.to[0], tt.to[1])
			if got != tt.expected {
				t.Errorf("MonthsBetween(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestCalculateActualDate(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		targetDay int
		wantDay   int
	}{
		{"regular day", 2024, time.March, 15, 15},
		{"day 31 in 30-day month", 2024, time.April, 31, 30},
		{"day 29 in leap february", 2024, time.February, 29, 29},
		{"day 29 in common february", 2025, time.February, 29, 28},
		{"day 31 in february", 2025, time.February, 31, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateActualDate(tt.year, tt.month, tt.targetDay)
			if got.Day() != tt.wantDay || got.Month() != tt.month || got.Year() != tt.year {
				t.Errorf("CalculateActualDate(%d, %s, %d) = %s, want day %d",
					tt.year, tt.month, tt.targetDay, got.Format("2006-01-02"), tt.wantDay)
			}
		})
	}
}
