package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCompanyCostNotFound      = errors.New("company cost not found")
	ErrCompanyCostAmountInvalid = errors.New("monthly amount must not be negative")
	ErrCategoryTooLong          = errors.New("category must be 255 characters or less")
)

// CompanyCost is a shared fixed operating cost of the provider (rent, payroll, tooling)
type CompanyCost struct {
	ID            int32           `json:"id"`
	WorkspaceID   int32           `json:"workspaceId"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (c *CompanyCost) Validate() error {
	if c.Description == "" {
		return ErrNameRequired
	}
	if len(c.Description) > MaxDescriptionLength {
		return ErrNameTooLong
	}
	if len(c.Category) > MaxNameLength {
		return ErrCategoryTooLong
	}
	if c.MonthlyAmount.IsNegative() {
		return ErrCompanyCostAmountInvalid
	}
	return nil
}

// TotalFixedCompanyCosts sums the monthly amount of active costs
func TotalFixedCompanyCosts(costs []*CompanyCost) decimal.Decimal {
	total := decimal.Zero
	for _, c := range costs {
		if c.IsActive {
			total = total.Add(c.MonthlyAmount)
		}
	}
	return total
}

type CompanyCostRepository interface {
	Create(cost *CompanyCost) (*CompanyCost, error)
	GetByID(workspaceID int32, id int32) (*CompanyCost, error)
	List(workspaceID int32) ([]*CompanyCost, error)
	Update(cost *CompanyCost) (*CompanyCost, error)
	Delete(workspaceID int32, id int32) error
}
