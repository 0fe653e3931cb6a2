package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/margem-saas/margem-backend/internal/util"
)

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate normalizes a textual date in YYYY-MM-DD or DD/MM/YYYY form (timestamps are
// truncated to their date) into a UTC midnight time.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseableDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
}

// DateOnly strips the clock and location from t
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AnalysisMonth is the (year, month) pair a profitability analysis is evaluated against.
// All temporal gating is relative to it, never to the wall clock.
type AnalysisMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewAnalysisMonth validates and builds an AnalysisMonth
func NewAnalysisMonth(year, month int) (AnalysisMonth, error) {
	if year < 2000 || year > 2100 {
		return AnalysisMonth{}, fmt.Errorf("%w: year must be between 2000 and 2100", ErrInvalidInput)
	}
	if month < 1 || month > 12 {
		return AnalysisMonth{}, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidInput)
	}
	return AnalysisMonth{Year: year, Month: month}, nil
}

// ParseAnalysisMonth reads a YYYY-MM month
func ParseAnalysisMonth(raw string) (AnalysisMonth, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return AnalysisMonth{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	if errY != nil || errM != nil {
		return AnalysisMonth{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
	}
	return NewAnalysisMonth(year, month)
}

// MonthOf returns the analysis month containing t
func MonthOf(t time.Time) AnalysisMonth {
	return AnalysisMonth{Year: t.Year(), Month: int(t.Month())}
}

// Index returns a monotonically increasing month number (year*12 + month-1)
func (m AnalysisMonth) Index() int {
	return m.Year*12 + m.Month - 1
}

// MonthsSince returns the number of whole calendar months from other to m (negative if m is earlier)
func (m AnalysisMonth) MonthsSince(other AnalysisMonth) int {
	return util.MonthsBetween(other.Year, other.Month, m.Year, m.Month)
}

// Before reports whether m is strictly earlier than other
func (m AnalysisMonth) Before(other AnalysisMonth) bool {
	return m.Index() < other.Index()
}

// AddMonths returns the month n months after m
func (m AnalysisMonth) AddMonths(n int) AnalysisMonth {
	idx := m.Index() + n
	return AnalysisMonth{Year: idx / 12, Month: idx%12 + 1}
}

// FirstDay returns the first calendar day of the month
func (m AnalysisMonth) FirstDay() time.Time {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last calendar day of the month. Adjustments effective on any day of
// the month are considered applied for the month's analysis.
func (m AnalysisMonth) LastDay() time.Time {
	return time.Date(m.Year, time.Month(m.Month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the month
func (m AnalysisMonth) Contains(t time.Time) bool {
	return t.Year() == m.Year && int(t.Month()) == m.Month
}

func (m AnalysisMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}
