package service

import (
	"strings"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// CostSettingsService manages everything the cost allocator reads besides contracts: license
// tiers, fixed company costs and per-contract bank-slip fees
type CostSettingsService struct {
	costPlanRepo    domain.CostPlanRepository
	companyCostRepo domain.CompanyCostRepository
	bankSlipRepo    domain.BankSlipCostRepository
	contractRepo    domain.ContractRepository
	defaults        CostPlanDefaults
	eventPublisher  websocket.EventPublisher
}

// CostPlanDefaults fills cost plan fields the caller leaves empty
type CostPlanDefaults struct {
	ExemptionMonths       int32
	ExtraEmployeeUnitCost decimal.Decimal
	ExtraCNPJUnitCost     decimal.Decimal
}

// NewCostSettingsService creates a new CostSettingsService
func NewCostSettingsService(
	costPlanRepo domain.CostPlanRepository,
	companyCostRepo domain.CompanyCostRepository,
	bankSlipRepo domain.BankSlipCostRepository,
	contractRepo domain.ContractRepository,
	defaults CostPlanDefaults,
) *CostSettingsService {
	return &CostSettingsService{
		costPlanRepo:    costPlanRepo,
		companyCostRepo: companyCostRepo,
		bankSlipRepo:    bankSlipRepo,
		contractRepo:    contractRepo,
		defaults:        defaults,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CostSettingsService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CostSettingsService) publishChanged(workspaceID int32, kind string, payload interface{}) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, websocket.CostSettingsUpdated(map[string]interface{}{
			"kind": kind,
			"data": payload,
		}))
	}
}

// CostPlanInput holds the input for creating or updating a cost plan
type CostPlanInput struct {
	Name                           string
	MaxEmployees                   int32
	MaxCNPJs                       int32
	BaseLicenseCost                decimal.Decimal
	BillingType                    domain.PlanType
	ExemptionPeriodMonths          *int32
	EarlyPaymentDiscountPercentage decimal.Decimal
	ExtraEmployeeUnitCost          *decimal.Decimal
	ExtraCNPJUnitCost              *decimal.Decimal
}

func (s *CostSettingsService) buildPlan(workspaceID int32, input CostPlanInput) (*domain.CostPlan, error) {
	plan := &domain.CostPlan{
		WorkspaceID:                    workspaceID,
		Name:                           strings.TrimSpace(input.Name),
		MaxEmployees:                   input.MaxEmployees,
		MaxCNPJs:                       input.MaxCNPJs,
		BaseLicenseCost:                input.BaseLicenseCost,
		BillingType:                    input.BillingType,
		ExemptionPeriodMonths:          s.defaults.ExemptionMonths,
		EarlyPaymentDiscountPercentage: input.EarlyPaymentDiscountPercentage,
		ExtraEmployeeUnitCost:          s.defaults.ExtraEmployeeUnitCost,
		ExtraCNPJUnitCost:              s.defaults.ExtraCNPJUnitCost,
	}
	if plan.BillingType == "" {
		plan.BillingType = domain.PlanMonthly
	}
	if input.ExemptionPeriodMonths != nil {
		plan.ExemptionPeriodMonths = *input.ExemptionPeriodMonths
	}
	if input.ExtraEmployeeUnitCost != nil {
		plan.ExtraEmployeeUnitCost = *input.ExtraEmployeeUnitCost
	}
	if input.ExtraCNPJUnitCost != nil {
		plan.ExtraCNPJUnitCost = *input.ExtraCNPJUnitCost
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// CreateCostPlan stores a new license tier
func (s *CostSettingsService) CreateCostPlan(workspaceID int32, input CostPlanInput) (*domain.CostPlan, error) {
	plan, err := s.buildPlan(workspaceID, input)
	if err != nil {
		return nil, err
	}
	created, err := s.costPlanRepo.Create(plan)
	if err != nil {
		return nil, err
	}
	s.publishChanged(workspaceID, "cost_plan", created)
	return created, nil
}

// ListCostPlans lists the workspace's license tiers
func (s *CostSettingsService) ListCostPlans(workspaceID int32) ([]*domain.CostPlan, error) {
	return s.costPlanRepo.List(workspaceID)
}

// UpdateCostPlan replaces a license tier
func (s *CostSettingsService) UpdateCostPlan(workspaceID, id int32, input CostPlanInput) (*domain.CostPlan, error) {
	existing, err := s.costPlanRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.buildPlan(workspaceID, input)
	if err != nil {
		return nil, err
	}
	plan.ID = existing.ID
	plan.CreatedAt = existing.CreatedAt

	updated, err := s.costPlanRepo.Update(plan)
	if err != nil {
		return nil, err
	}
	s.publishChanged(workspaceID, "cost_plan", updated)
	return updated, nil
}

// DeleteCostPlan removes a license tier. Contracts pinned to it fall back to automatic resolution.
func (s *CostSettingsService) DeleteCostPlan(workspaceID, id int32) error {
	if err := s.costPlanRepo.Delete(workspaceID, id); err != nil {
		return err
	}
	s.publishChanged(workspaceID, "cost_plan", map[string]int32{"id": id})
	return nil
}

// CompanyCostInput holds the input for creating or updating a fixed company cost
type CompanyCostInput struct {
	Description   string
	Category      string
	MonthlyAmount decimal.Decimal
	IsActive      *bool
}

func buildCompanyCost(workspaceID int32, input CompanyCostInput) (*domain.CompanyCost, error) {
	cost := &domain.CompanyCost{
		WorkspaceID:   workspaceID,
		Description:   strings.TrimSpace(input.Description),
		Category:      strings.TrimSpace(input.Category),
		MonthlyAmount: input.MonthlyAmount,
		IsActive:      true,
	}
	if input.IsActive != nil {
		cost.IsActive = *input.IsActive
	}
	if err := cost.Validate(); err != nil {
		return nil, err
	}
	return cost, nil
}

// CreateCompanyCost stores a new fixed cost
func (s *CostSettingsService) CreateCompanyCost(workspaceID int32, input CompanyCostInput) (*domain.CompanyCost, error) {
	cost, err := buildCompanyCost(workspaceID, input)
	if err != nil {
		return nil, err
	}
	created, err := s.companyCostRepo.Create(cost)
	if err != nil {
		return nil, err
	}
	s.publishChanged(workspaceID, "company_cost", created)
	return created, nil
}

// CompanyCostList is the fixed cost listing with the monthly total of the active ones
type CompanyCostList struct {
	Costs       []*domain.CompanyCost
	ActiveTotal decimal.Decimal
}

// ListCompanyCosts lists fixed costs and their active total
func (s *CostSettingsService) ListCompanyCosts(workspaceID int32) (*CompanyCostList, error) {
	costs, err := s.companyCostRepo.List(workspaceID)
	if err != nil {
		return nil, err
	}
	return &CompanyCostList{Costs: costs, ActiveTotal: domain.TotalFixedCompanyCosts(costs)}, nil
}

// UpdateCompanyCost replaces a fixed cost
func (s *CostSettingsService) UpdateCompanyCost(workspaceID, id int32, input CompanyCostInput) (*domain.CompanyCost, error) {
	existing, err := s.companyCostRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	cost, err := buildCompanyCost(workspaceID, input)
	if err != nil {
		return nil, err
	}
	cost.ID = existing.ID
	cost.CreatedAt = existing.CreatedAt

	updated, err := s.companyCostRepo.Update(cost)
	if err != nil {
		return nil, err
	}
	s.publishChanged(workspaceID, "company_cost", updated)
	return updated, nil
}

// DeleteCompanyCost removes a fixed cost
func (s *CostSettingsService) DeleteCompanyCost(workspaceID, id int32) error {
	if err := s.companyCostRepo.Delete(workspaceID, id); err != nil {
		return err
	}
	s.publishChanged(workspaceID, "company_cost", map[string]int32{"id": id})
	return nil
}

// GetBankSlipCost returns the contract's bank-slip fee configuration
func (s *CostSettingsService) GetBankSlipCost(workspaceID, contractID int32) (*domain.BankSlipCost, error) {
	if _, err := s.contractRepo.GetByID(workspaceID, contractID); err != nil {
		return nil, err
	}
	return s.bankSlipRepo.GetByContract(workspaceID, contractID)
}

// SetBankSlipCost creates or replaces the contract's bank-slip fee
func (s *CostSettingsService) SetBankSlipCost(workspaceID, contractID int32, monthlyCost decimal.Decimal, billingStartMonth int32) (*domain.BankSlipCost, error) {
	cost := &domain.BankSlipCost{
		WorkspaceID:       workspaceID,
		ContractID:        contractID,
		MonthlyCost:       monthlyCost,
		BillingStartMonth: billingStartMonth,
	}
	if err := cost.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.contractRepo.GetByID(workspaceID, contractID); err != nil {
		return nil, err
	}

	saved, err := s.bankSlipRepo.Upsert(cost)
	if err != nil {
		return nil, err
	}
	s.publishChanged(workspaceID, "bank_slip", saved)
	return saved, nil
}

// DeleteBankSlipCost removes the contract's bank-slip fee
func (s *CostSettingsService) DeleteBankSlipCost(workspaceID, contractID int32) error {
	if err := s.bankSlipRepo.Delete(workspaceID, contractID); err != nil {
		return err
	}
	s.publishChanged(workspaceID, "bank_slip", map[string]int32{"contractId": contractID})
	return nil
}
