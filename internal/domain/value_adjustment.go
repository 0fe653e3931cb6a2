package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrAdjustmentNotFound     = errors.New("adjustment not found")
	ErrInvalidAdjustmentKind  = errors.New("adjustment kind must be percentage or value")
	ErrInvalidMagnitude       = errors.New("adjustment magnitude must be a valid number")
	ErrNegativeAdjustedValue  = errors.New("adjusted value must not be negative")
	ErrEffectiveDateRequired  = errors.New("effective date is required")
	ErrAdjustmentNotesTooLong = errors.New("notes must be 1000 characters or less")
)

// AdjustmentKind distinguishes percentage reajustes from fixed-value replacements
type AdjustmentKind string

const (
	AdjustmentPercentage AdjustmentKind = "percentage"
	AdjustmentValue      AdjustmentKind = "value"
)

// IsValid reports whether k is a known adjustment kind
func (k AdjustmentKind) IsValid() bool {
	return k == AdjustmentPercentage || k == AdjustmentValue
}

// AdjustmentSource tells which flow appended the adjustment
type AdjustmentSource string

const (
	AdjustmentSourceManual     AdjustmentSource = "manual"
	AdjustmentSourcePlanChange AdjustmentSource = "plan_change"
)

// ValueAdjustment is one immutable reajuste event. PreviousValue and NewValue are snapshots taken
// at creation; NewValue is authoritative when resolving the effective value.
type ValueAdjustment struct {
	ID            int32            `json:"id"`
	WorkspaceID   int32            `json:"workspaceId"`
	ContractID    int32            `json:"contractId"`
	Kind          AdjustmentKind   `json:"kind"`
	Magnitude     decimal.Decimal  `json:"magnitude"`
	PreviousValue decimal.Decimal  `json:"previousValue"`
	NewValue      decimal.Decimal  `json:"newValue"`
	EffectiveDate time.Time        `json:"effectiveDate"`
	Notes         *string          `json:"notes,omitempty"`
	Source        AdjustmentSource `json:"source"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// FromPlanChange reports whether the adjustment carries the price of an approved plan change
func (a *ValueAdjustment) FromPlanChange() bool {
	return a.Source == AdjustmentSourcePlanChange
}

// RenewalYear is the (contract, year) lock key the adjustment belongs to
func (a *ValueAdjustment) RenewalYear() int {
	return a.EffectiveDate.Year()
}

// ComputeAdjustedValue derives the new value: previous*(1+m/100) for percentages, m for fixed values
func ComputeAdjustedValue(previous decimal.Decimal, kind AdjustmentKind, magnitude decimal.Decimal) (decimal.Decimal, error) {
	var next decimal.Decimal
	switch kind {
	case AdjustmentPercentage:
		next = previous.Add(Percent(previous, magnitude)).Round(2)
	case AdjustmentValue:
		next = magnitude
	default:
		return decimal.Zero, ErrInvalidAdjustmentKind
	}
	if next.IsNegative() {
		return decimal.Zero, ErrNegativeAdjustedValue
	}
	return next, nil
}

// ResolveEffectiveValue folds a contract's adjustments into its value as of asOf.
// Adjustments effective after asOf are ignored; when several share an effective date the most
// recently created one wins; the rest are applied in ascending effective-date order, each
// replacing the running value with its NewValue. The input slice is not modified.
func ResolveEffectiveValue(base decimal.Decimal, adjustments []*ValueAdjustment, asOf time.Time) decimal.Decimal {
	cutoff := DateOnly(asOf)

	byDate := make(map[time.Time]*ValueAdjustment)
	for _, adj := range adjustments {
		effective := DateOnly(adj.EffectiveDate)
		if effective.After(cutoff) {
			continue
		}
		current, ok := byDate[effective]
		if !ok || adj.CreatedAt.After(current.CreatedAt) ||
			(adj.CreatedAt.Equal(current.CreatedAt) && adj.ID > current.ID) {
			byDate[effective] = adj
		}
	}
	if len(byDate) == 0 {
		return base
	}

	qualifying := make([]*ValueAdjustment, 0, len(byDate))
	for _, adj := range byDate {
		qualifying = append(qualifying, adj)
	}
	sort.Slice(qualifying, func(i, j int) bool {
		return qualifying[i].EffectiveDate.Before(qualifying[j].EffectiveDate)
	})

	value := base
	for _, adj := range qualifying {
		value = adj.NewValue
	}
	return value
}

type ValueAdjustmentRepository interface {
	// CreateIfUnlocked checks the (contract, renewal year) lock and inserts the adjustment in one
	// transaction. Returns ErrPeriodLocked without writing when the pair is locked.
	CreateIfUnlocked(adjustment *ValueAdjustment, renewalYear int) (*ValueAdjustment, error)
	GetByID(workspaceID int32, id int32) (*ValueAdjustment, error)
	ListByContract(workspaceID int32, contractID int32) ([]*ValueAdjustment, error)
	ListByWorkspace(workspaceID int32) ([]*ValueAdjustment, error)
	Delete(workspaceID int32, id int32) error
}
