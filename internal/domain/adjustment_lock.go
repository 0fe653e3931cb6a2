package domain

import (
	"errors"
	"time"
)

var (
	ErrPeriodLocked         = errors.New("adjustments for this contract and renewal year are locked")
	ErrUnlockReasonRequired = errors.New("unlock reason is required")
	ErrInvalidRenewalYear   = errors.New("renewal year must be between 2000 and 2100")
)

// AdjustmentLock forbids new adjustments for one (contract, renewal year) pair while locked.
// A missing row means unlocked.
type AdjustmentLock struct {
	ID           int32     `json:"id"`
	WorkspaceID  int32     `json:"workspaceId"`
	ContractID   int32     `json:"contractId"`
	RenewalYear  int32     `json:"renewalYear"`
	IsLocked     bool      `json:"isLocked"`
	UnlockReason *string   `json:"unlockReason,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidateRenewalYear checks the year is inside the supported range
func ValidateRenewalYear(year int) error {
	if year < 2000 || year > 2100 {
		return ErrInvalidRenewalYear
	}
	return nil
}

type AdjustmentLockRepository interface {
	// Get returns the lock row or an unlocked placeholder when none exists
	Get(workspaceID int32, contractID int32, renewalYear int32) (*AdjustmentLock, error)
	ListByContract(workspaceID int32, contractID int32) ([]*AdjustmentLock, error)
	Upsert(lock *AdjustmentLock) (*AdjustmentLock, error)
}
