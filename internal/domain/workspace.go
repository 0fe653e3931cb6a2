package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Workspace is the tenant owning contracts and cost settings. It is bound to the Auth0 account
// that created it.
type Workspace struct {
	ID             int32           `json:"id"`
	Auth0ID        string          `json:"auth0Id"`
	OwnerEmail     string          `json:"ownerEmail"`
	OwnerName      *string         `json:"ownerName"`
	Name           string          `json:"name"`
	TaxRatePercent decimal.Decimal `json:"taxRatePercent"`
	LogoPath       *string         `json:"logoPath,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ValidateTaxRate checks a tax rate percentage lies in [0, 100]
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return ErrInvalidTaxRate
	}
	return nil
}

// WorkspaceRepository defines the interface for workspace persistence operations
type WorkspaceRepository interface {
	GetByID(id int32) (*Workspace, error)
	GetByAuth0ID(auth0ID string) (*Workspace, error)
	Create(workspace *Workspace) (*Workspace, error)
	Update(workspace *Workspace) (*Workspace, error)
	ListIDs() ([]int32, error)
}
