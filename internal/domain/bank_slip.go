package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBankSlipCostNotFound      = errors.New("bank slip cost not found")
	ErrBankSlipCostInvalid       = errors.New("bank slip monthly cost must not be negative")
	ErrBankSlipStartMonthInvalid = errors.New("billing start month must not be negative")
)

// BankSlipCost is the per-contract boleto fee
type BankSlipCost struct {
	ID                int32           `json:"id"`
	WorkspaceID       int32           `json:"workspaceId"`
	ContractID        int32           `json:"contractId"`
	MonthlyCost       decimal.Decimal `json:"monthlyCost"`
	BillingStartMonth int32           `json:"billingStartMonth"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (b *BankSlipCost) Validate() error {
	if b.MonthlyCost.IsNegative() {
		return ErrBankSlipCostInvalid
	}
	if b.BillingStartMonth < 0 {
		return ErrBankSlipStartMonthInvalid
	}
	return nil
}

// FeeFor returns the fee charged in a month that is monthsSinceStart months after the contract start
func (b *BankSlipCost) FeeFor(monthsSinceStart int) decimal.Decimal {
	if b == nil || monthsSinceStart < int(b.BillingStartMonth) {
		return decimal.Zero
	}
	return b.MonthlyCost
}

type BankSlipCostRepository interface {
	GetByContract(workspaceID int32, contractID int32) (*BankSlipCost, error)
	ListByWorkspace(workspaceID int32) ([]*BankSlipCost, error)
	Upsert(cost *BankSlipCost) (*BankSlipCost, error)
	Delete(workspaceID int32, contractID int32) error
}
