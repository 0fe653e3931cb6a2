package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrAddonNotFound           = errors.New("addon not found")
	ErrInvalidAddonType        = errors.New("addon type must be plan_change, additional_service, value_adjustment or adjustment")
	ErrAddonNewValueRequired   = errors.New("addon new value is required")
	ErrAddonRequesterRequired  = errors.New("requester name is required")
	ErrAddonDescriptionTooLong = errors.New("description must be 1000 characters or less")
	ErrRequestDateRequired     = errors.New("request date is required")
)

type AddonType string

const (
	AddonPlanChange        AddonType = "plan_change"
	AddonAdditionalService AddonType = "additional_service"
	AddonValueAdjustment   AddonType = "value_adjustment"
	AddonAdjustment        AddonType = "adjustment"
)

func (t AddonType) IsValid() bool {
	switch t {
	case AddonPlanChange, AddonAdditionalService, AddonValueAdjustment, AddonAdjustment:
		return true
	}
	return false
}

// PlanChangeDetails is the structured payload of a plan_change addon
type PlanChangeDetails struct {
	PreviousPlanType      *PlanType `json:"previousPlanType,omitempty"`
	NewPlanType           *PlanType `json:"newPlanType,omitempty"`
	PreviousEmployeeCount *int32    `json:"previousEmployeeCount,omitempty"`
	NewEmployeeCount      *int32    `json:"newEmployeeCount,omitempty"`
	PreviousCNPJCount     *int32    `json:"previousCnpjCount,omitempty"`
	NewCNPJCount          *int32    `json:"newCnpjCount,omitempty"`
}

// Addon is a structural or one-off change on a contract. Values are kept exactly as entered
// (locale currency strings) and normalized only when summed or compared.
type Addon struct {
	ID                int32              `json:"id"`
	WorkspaceID       int32              `json:"workspaceId"`
	ContractID        int32              `json:"contractId"`
	Type              AddonType          `json:"type"`
	Description       string             `json:"description"`
	PreviousValue     *string            `json:"previousValue,omitempty"`
	NewValue          string             `json:"newValue"`
	RequestedBy       string             `json:"requestedBy"`
	RequestDate       time.Time          `json:"requestDate"`
	PlanChangeDetails *PlanChangeDetails `json:"planChangeDetails,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// CountsTowardRevenue reports whether the addon's value is added to recurring revenue.
// Plan changes and adjustment addons move the contract value through the adjustment ledger,
// so neither is summed.
func (a *Addon) CountsTowardRevenue() bool {
	return a.Type != AddonPlanChange && a.Type != AddonAdjustment
}

// AddonAnomaly records an addon whose value could not be normalized
type AddonAnomaly struct {
	Addon *Addon
	Err   error
}

// SumAddonRevenue adds the new values of every revenue-bearing addon. Unparseable values count
// as zero and are returned as anomalies for the caller to log.
func SumAddonRevenue(addons []*Addon) (decimal.Decimal, []AddonAnomaly) {
	total := decimal.Zero
	var anomalies []AddonAnomaly
	for _, addon := range addons {
		if !addon.CountsTowardRevenue() {
			continue
		}
		value, err := ParseMoney(addon.NewValue)
		if err != nil {
			anomalies = append(anomalies, AddonAnomaly{Addon: addon, Err: err})
			continue
		}
		total = total.Add(value)
	}
	return total, anomalies
}

// ValueVariation classifies how a contract's value moved in a month
type ValueVariation string

const (
	VariationNone       ValueVariation = "none"
	VariationAdjustment ValueVariation = "adjustment"
	VariationUpgrade    ValueVariation = "upgrade"
	VariationDowngrade  ValueVariation = "downgrade"
)

// ClassifyValueVariation returns one classification per contract and month. An adjustment
// effective in the month wins; otherwise plan_change addons requested in the month are checked
// in request order and the first one whose value moved decides upgrade or downgrade.
// Adjustments recorded for a plan change are classified through their addon.
func ClassifyValueVariation(adjustments []*ValueAdjustment, addons []*Addon, month AnalysisMonth) ValueVariation {
	for _, adj := range adjustments {
		if !adj.FromPlanChange() && month.Contains(adj.EffectiveDate) {
			return VariationAdjustment
		}
	}

	changes := make([]*Addon, 0, len(addons))
	for _, addon := range addons {
		if addon.Type == AddonPlanChange && month.Contains(addon.RequestDate) {
			changes = append(changes, addon)
		}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].RequestDate.Equal(changes[j].RequestDate) {
			return changes[i].CreatedAt.Before(changes[j].CreatedAt)
		}
		return changes[i].RequestDate.Before(changes[j].RequestDate)
	})

	for _, addon := range changes {
		if addon.PreviousValue == nil {
			continue
		}
		previous, err := ParseMoney(*addon.PreviousValue)
		if err != nil {
			continue
		}
		next, err := ParseMoney(addon.NewValue)
		if err != nil {
			continue
		}
		switch next.Cmp(previous) {
		case 1:
			return VariationUpgrade
		case -1:
			return VariationDowngrade
		}
	}
	return VariationNone
}

// AddonEffects are the writes an addon carries. They are stored in the same transaction as the
// addon; when any of them fails nothing is written. Stored rows are copied back into the pointers.
type AddonEffects struct {
	// Adjustment is appended under the lock of its renewal year (ErrPeriodLocked when locked)
	Adjustment *ValueAdjustment
	// PlanTerms carries the plan type, employee and CNPJ counts written over the stored contract
	PlanTerms *Contract
}

type AddonRepository interface {
	Create(addon *Addon, effects AddonEffects) (*Addon, error)
	GetByID(workspaceID int32, id int32) (*Addon, error)
	ListByContract(workspaceID int32, contractID int32) ([]*Addon, error)
	ListByWorkspace(workspaceID int32) ([]*Addon, error)
	Delete(workspaceID int32, id int32) error
}
