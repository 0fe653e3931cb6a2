package service

import (
	"strings"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AddonService is the addon ledger. Plan changes and adjustment addons move the contract value
// through the value adjustment ledger, which stays the only source of effective values.
type AddonService struct {
	addonRepo      domain.AddonRepository
	contractRepo   domain.ContractRepository
	adjustmentRepo domain.ValueAdjustmentRepository
	adjustments    *AdjustmentService
	eventPublisher websocket.EventPublisher
}

// NewAddonService creates a new AddonService
func NewAddonService(
	addonRepo domain.AddonRepository,
	contractRepo domain.ContractRepository,
	adjustmentRepo domain.ValueAdjustmentRepository,
	adjustments *AdjustmentService,
) *AddonService {
	return &AddonService{
		addonRepo:      addonRepo,
		contractRepo:   contractRepo,
		adjustmentRepo: adjustmentRepo,
		adjustments:    adjustments,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AddonService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AddonService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// RevenueContribution sums the revenue-bearing addons of a contract. Unparseable values count as zero.
func (s *AddonService) RevenueContribution(workspaceID, contractID int32) (decimal.Decimal, error) {
	addons, err := s.addonRepo.ListByContract(workspaceID, contractID)
	if err != nil {
		return decimal.Zero, err
	}
	total, anomalies := domain.SumAddonRevenue(addons)
	logAddonAnomalies(workspaceID, anomalies)
	return total, nil
}

// ClassifyValueVariation tells whether the contract value moved in month and how
func (s *AddonService) ClassifyValueVariation(workspaceID, contractID int32, month domain.AnalysisMonth) (domain.ValueVariation, error) {
	if _, err := s.contractRepo.GetByID(workspaceID, contractID); err != nil {
		return domain.VariationNone, err
	}
	adjustments, err := s.adjustmentRepo.ListByContract(workspaceID, contractID)
	if err != nil {
		return domain.VariationNone, err
	}
	addons, err := s.addonRepo.ListByContract(workspaceID, contractID)
	if err != nil {
		return domain.VariationNone, err
	}
	return domain.ClassifyValueVariation(adjustments, addons, month), nil
}

// CreateAddonInput holds the raw input for registering an addon
type CreateAddonInput struct {
	ContractID        int32
	Type              domain.AddonType
	Description       string
	PreviousValue     *string
	NewValue          string
	RequestedBy       string
	RequestDate       string
	PlanChangeDetails *domain.PlanChangeDetails
}

// CreateAddon validates and stores an addon. Its side effects are written in the same
// transaction: plan changes update the plan terms and record their price as an adjustment
// effective on the request date; adjustment addons record a fixed-value adjustment.
func (s *AddonService) CreateAddon(workspaceID int32, input CreateAddonInput) (*domain.Addon, error) {
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidAddonType
	}
	description := strings.TrimSpace(input.Description)
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrAddonDescriptionTooLong
	}
	requestedBy := strings.TrimSpace(input.RequestedBy)
	if requestedBy == "" {
		return nil, domain.ErrAddonRequesterRequired
	}
	if len(requestedBy) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	rawValue := strings.TrimSpace(input.NewValue)
	if rawValue == "" {
		return nil, domain.ErrAddonNewValueRequired
	}
	newValue, err := domain.ParseMoney(rawValue)
	if err != nil {
		return nil, err
	}
	var previous *string
	if input.PreviousValue != nil && strings.TrimSpace(*input.PreviousValue) != "" {
		trimmed := strings.TrimSpace(*input.PreviousValue)
		if _, err := domain.ParseMoney(trimmed); err != nil {
			return nil, err
		}
		previous = &trimmed
	}
	if strings.TrimSpace(input.RequestDate) == "" {
		return nil, domain.ErrRequestDateRequired
	}
	requestDate, err := domain.ParseDate(input.RequestDate)
	if err != nil {
		return nil, err
	}

	contract, err := s.contractRepo.GetByID(workspaceID, input.ContractID)
	if err != nil {
		return nil, err
	}

	var effects domain.AddonEffects
	switch input.Type {
	case domain.AddonPlanChange:
		if effects.PlanTerms, err = planTerms(contract, input.PlanChangeDetails); err != nil {
			return nil, err
		}
		effects.Adjustment, err = s.priceAdjustment(contract, newValue, previous, requestDate, description, domain.AdjustmentSourcePlanChange)
	case domain.AddonAdjustment:
		effects.Adjustment, err = s.priceAdjustment(contract, newValue, previous, requestDate, description, domain.AdjustmentSourceManual)
	}
	if err != nil {
		return nil, err
	}

	addon, err := s.addonRepo.Create(&domain.Addon{
		WorkspaceID:       workspaceID,
		ContractID:        contract.ID,
		Type:              input.Type,
		Description:       description,
		PreviousValue:     previous,
		NewValue:          rawValue,
		RequestedBy:       requestedBy,
		RequestDate:       domain.DateOnly(requestDate),
		PlanChangeDetails: input.PlanChangeDetails,
	}, effects)
	if effects.Adjustment != nil {
		var stored *domain.ValueAdjustment
		if err == nil {
			stored = effects.Adjustment
		}
		s.adjustments.observe(contract, stored, err)
	}
	if err != nil {
		return nil, err
	}

	if terms := effects.PlanTerms; terms != nil {
		log.Info().
			Int32("workspace_id", terms.WorkspaceID).
			Int32("contract_id", terms.ID).
			Str("plan_type", string(terms.PlanType)).
			Int32("employee_count", terms.EmployeeCount).
			Msg("Plan change synchronized to contract")
		s.publishEvent(workspaceID, websocket.ContractUpdated(terms))
	}
	s.publishEvent(workspaceID, websocket.AddonCreated(addon))
	return addon, nil
}

// planTerms applies the plan change details to a copy of the contract. Nil when nothing changes.
func planTerms(contract *domain.Contract, details *domain.PlanChangeDetails) (*domain.Contract, error) {
	if details == nil || (details.NewPlanType == nil && details.NewEmployeeCount == nil && details.NewCNPJCount == nil) {
		return nil, nil
	}
	updated := *contract
	if details.NewPlanType != nil {
		if !details.NewPlanType.IsValid() {
			return nil, domain.ErrInvalidPlanType
		}
		updated.PlanType = *details.NewPlanType
	}
	if details.NewEmployeeCount != nil {
		updated.EmployeeCount = *details.NewEmployeeCount
	}
	if details.NewCNPJCount != nil {
		updated.CNPJCount = *details.NewCNPJCount
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// priceAdjustment builds the fixed-value adjustment an addon records, effective on its request date
func (s *AddonService) priceAdjustment(
	contract *domain.Contract,
	newValue decimal.Decimal,
	previous *string,
	requestDate time.Time,
	description string,
	source domain.AdjustmentSource,
) (*domain.ValueAdjustment, error) {
	req := &adjustmentRequest{
		kind:          domain.AdjustmentValue,
		magnitude:     newValue,
		effectiveDate: requestDate,
	}
	if previous != nil {
		value, err := domain.ParseMoney(*previous)
		if err != nil {
			return nil, err
		}
		req.previousValue = &value
	}
	if description != "" {
		req.notes = &description
	}
	adjustment, err := s.adjustments.prepare(contract, req)
	if err != nil {
		return nil, err
	}
	adjustment.Source = source
	return adjustment, nil
}

// ListAddons returns a contract's addons ordered by request date
func (s *AddonService) ListAddons(workspaceID, contractID int32) ([]*domain.Addon, error) {
	if _, err := s.contractRepo.GetByID(workspaceID, contractID); err != nil {
		return nil, err
	}
	return s.addonRepo.ListByContract(workspaceID, contractID)
}

// DeleteAddon removes an addon record. Adjustments and plan terms it wrote stay.
func (s *AddonService) DeleteAddon(workspaceID, contractID, addonID int32) error {
	addon, err := s.addonRepo.GetByID(workspaceID, addonID)
	if err != nil {
		return err
	}
	if addon.ContractID != contractID {
		return domain.ErrAddonNotFound
	}
	if err := s.addonRepo.Delete(workspaceID, addonID); err != nil {
		return err
	}
	s.publishEvent(workspaceID, websocket.AddonDeleted(map[string]int32{"id": addonID, "contractId": contractID}))
	return nil
}
