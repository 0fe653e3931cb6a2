package service

import (
	"errors"
	"strings"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/margem-saas/margem-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Bulk adjustment outcomes
const (
	BulkOutcomeApplied = "applied"
	BulkOutcomeLocked  = "locked"
	BulkOutcomeFailed  = "failed"
)

// AdjustmentService is the value adjustment ledger: effective value resolution, lock-guarded
// appends and the renewal lock toggles
type AdjustmentService struct {
	adjustmentRepo domain.ValueAdjustmentRepository
	lockRepo       domain.AdjustmentLockRepository
	contractRepo   domain.ContractRepository
	eventPublisher websocket.EventPublisher
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(
	adjustmentRepo domain.ValueAdjustmentRepository,
	lockRepo domain.AdjustmentLockRepository,
	contractRepo domain.ContractRepository,
) *AdjustmentService {
	return &AdjustmentService{
		adjustmentRepo: adjustmentRepo,
		lockRepo:       lockRepo,
		contractRepo:   contractRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AdjustmentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AdjustmentService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// EffectiveValue folds the contract's adjustments up to asOf over baseValue
func (s *AdjustmentService) EffectiveValue(workspaceID, contractID int32, baseValue decimal.Decimal, asOf time.Time) (decimal.Decimal, error) {
	adjustments, err := s.adjustmentRepo.ListByContract(workspaceID, contractID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.ResolveEffectiveValue(baseValue, adjustments, asOf), nil
}

// ContractEffectiveValue resolves the effective value of a stored contract
func (s *AdjustmentService) ContractEffectiveValue(workspaceID, contractID int32, asOf time.Time) (decimal.Decimal, error) {
	contract, err := s.contractRepo.GetByID(workspaceID, contractID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.EffectiveValue(workspaceID, contractID, contract.BaseValue, asOf)
}

// CreateAdjustmentInput holds the raw input for creating an adjustment. Magnitude and
// PreviousValue accept locale currency strings; EffectiveDate accepts either date format.
type CreateAdjustmentInput struct {
	ContractID    int32
	Kind          domain.AdjustmentKind
	Magnitude     string
	PreviousValue *string
	EffectiveDate string
	Notes         *string
}

type adjustmentRequest struct {
	kind          domain.AdjustmentKind
	magnitude     decimal.Decimal
	previousValue *decimal.Decimal
	effectiveDate time.Time
	notes         *string
}

func parseAdjustmentInput(input CreateAdjustmentInput) (*adjustmentRequest, error) {
	if !input.Kind.IsValid() {
		return nil, domain.ErrInvalidAdjustmentKind
	}
	magnitude, err := domain.ParseMoney(input.Magnitude)
	if err != nil {
		return nil, domain.ErrInvalidMagnitude
	}
	if strings.TrimSpace(input.EffectiveDate) == "" {
		return nil, domain.ErrEffectiveDateRequired
	}
	effective, err := domain.ParseDate(input.EffectiveDate)
	if err != nil {
		return nil, err
	}

	req := &adjustmentRequest{
		kind:          input.Kind,
		magnitude:     magnitude,
		effectiveDate: effective,
	}
	if input.PreviousValue != nil && strings.TrimSpace(*input.PreviousValue) != "" {
		previous, err := domain.ParseMoney(*input.PreviousValue)
		if err != nil {
			return nil, err
		}
		req.previousValue = &previous
	}
	if input.Notes != nil {
		notes := strings.TrimSpace(*input.Notes)
		if len(notes) > domain.MaxDescriptionLength {
			return nil, domain.ErrAdjustmentNotesTooLong
		}
		if notes != "" {
			req.notes = &notes
		}
	}
	return req, nil
}

// CreateAdjustment appends an adjustment unless its (contract, renewal year) is locked. When no
// previous value is given, the effective value on the day before the effective date is used.
func (s *AdjustmentService) CreateAdjustment(workspaceID int32, input CreateAdjustmentInput) (*domain.ValueAdjustment, error) {
	req, err := parseAdjustmentInput(input)
	if err != nil {
		metrics.AdjustmentsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	contract, err := s.contractRepo.GetByID(workspaceID, input.ContractID)
	if err != nil {
		return nil, err
	}

	return s.record(contract, req)
}

// record derives the new value and persists the adjustment through the lock-guarded insert
func (s *AdjustmentService) record(contract *domain.Contract, req *adjustmentRequest) (*domain.ValueAdjustment, error) {
	adjustment, err := s.prepare(contract, req)
	if err != nil {
		return nil, err
	}

	created, err := s.adjustmentRepo.CreateIfUnlocked(adjustment, adjustment.RenewalYear())
	s.observe(contract, created, err)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// prepare builds the adjustment row without writing it
func (s *AdjustmentService) prepare(contract *domain.Contract, req *adjustmentRequest) (*domain.ValueAdjustment, error) {
	adjustment, err := s.build(contract, req)
	if err != nil {
		metrics.AdjustmentsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	return adjustment, nil
}

// observe counts the outcome of a lock-guarded insert and announces stored adjustments
func (s *AdjustmentService) observe(contract *domain.Contract, created *domain.ValueAdjustment, err error) {
	switch {
	case err == nil:
		metrics.AdjustmentsTotal.WithLabelValues("created").Inc()
		s.publishEvent(contract.WorkspaceID, websocket.AdjustmentCreated(created))
	case errors.Is(err, domain.ErrPeriodLocked):
		metrics.AdjustmentsTotal.WithLabelValues("locked").Inc()
	default:
		metrics.AdjustmentsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Int32("workspace_id", contract.WorkspaceID).Int32("contract_id", contract.ID).Msg("Failed to create adjustment")
	}
}

func (s *AdjustmentService) build(contract *domain.Contract, req *adjustmentRequest) (*domain.ValueAdjustment, error) {
	var previous decimal.Decimal
	if req.previousValue != nil {
		previous = *req.previousValue
	} else {
		value, err := s.EffectiveValue(contract.WorkspaceID, contract.ID, contract.BaseValue, req.effectiveDate.AddDate(0, 0, -1))
		if err != nil {
			return nil, err
		}
		previous = value
	}

	next, err := domain.ComputeAdjustedValue(previous, req.kind, req.magnitude)
	if err != nil {
		return nil, err
	}

	return &domain.ValueAdjustment{
		WorkspaceID:   contract.WorkspaceID,
		ContractID:    contract.ID,
		Kind:          req.kind,
		Magnitude:     req.magnitude,
		PreviousValue: previous,
		NewValue:      next,
		EffectiveDate: domain.DateOnly(req.effectiveDate),
		Notes:         req.notes,
		Source:        domain.AdjustmentSourceManual,
	}, nil
}

// AdjustmentPreview is what CreateAdjustment would write
type AdjustmentPreview struct {
	ContractID    int32                 `json:"contractId"`
	Kind          domain.AdjustmentKind `json:"kind"`
	PreviousValue decimal.Decimal       `json:"previousValue"`
	NewValue      decimal.Decimal       `json:"newValue"`
	EffectiveDate time.Time             `json:"effectiveDate"`
	RenewalYear   int                   `json:"renewalYear"`
	Locked        bool                  `json:"locked"`
}

// PreviewAdjustment computes the adjustment without persisting it
func (s *AdjustmentService) PreviewAdjustment(workspaceID int32, input CreateAdjustmentInput) (*AdjustmentPreview, error) {
	req, err := parseAdjustmentInput(input)
	if err != nil {
		return nil, err
	}
	contract, err := s.contractRepo.GetByID(workspaceID, input.ContractID)
	if err != nil {
		return nil, err
	}
	adjustment, err := s.build(contract, req)
	if err != nil {
		return nil, err
	}
	lock, err := s.lockRepo.Get(workspaceID, contract.ID, int32(adjustment.RenewalYear()))
	if err != nil {
		return nil, err
	}

	return &AdjustmentPreview{
		ContractID:    contract.ID,
		Kind:          adjustment.Kind,
		PreviousValue: adjustment.PreviousValue,
		NewValue:      adjustment.NewValue,
		EffectiveDate: adjustment.EffectiveDate,
		RenewalYear:   adjustment.RenewalYear(),
		Locked:        lock.IsLocked,
	}, nil
}

// ListAdjustments returns a contract's adjustments ordered by effective date
func (s *AdjustmentService) ListAdjustments(workspaceID, contractID int32) ([]*domain.ValueAdjustment, error) {
	if _, err := s.contractRepo.GetByID(workspaceID, contractID); err != nil {
		return nil, err
	}
	return s.adjustmentRepo.ListByContract(workspaceID, contractID)
}

// DeleteAdjustment removes an adjustment. No compensating record is written.
func (s *AdjustmentService) DeleteAdjustment(workspaceID, contractID, adjustmentID int32) error {
	adjustment, err := s.adjustmentRepo.GetByID(workspaceID, adjustmentID)
	if err != nil {
		return err
	}
	if adjustment.ContractID != contractID {
		return domain.ErrAdjustmentNotFound
	}
	if err := s.adjustmentRepo.Delete(workspaceID, adjustmentID); err != nil {
		return err
	}

	s.publishEvent(workspaceID, websocket.AdjustmentDeleted(map[string]int32{"id": adjustmentID, "contractId": contractID}))
	return nil
}

// GetLock returns the lock state of (contract, year); a pair never toggled reads as unlocked
func (s *AdjustmentService) GetLock(workspaceID, contractID int32, year int) (*domain.AdjustmentLock, error) {
	if err := domain.ValidateRenewalYear(year); err != nil {
		return nil, err
	}
	if _, err := s.contractRepo.GetByID(workspaceID, contractID); err != nil {
		return nil, err
	}
	return s.lockRepo.Get(workspaceID, contractID, int32(year))
}

// ListLocks returns every lock row of a contract
func (s *AdjustmentService) ListLocks(workspaceID, contractID int32) ([]*domain.AdjustmentLock, error) {
	if _, err := s.contractRepo.GetByID(workspaceID, contractID); err != nil {
		return nil, err
	}
	return s.lockRepo.ListByContract(workspaceID, contractID)
}

// SetLockInput holds the input for toggling a lock
type SetLockInput struct {
	ContractID int32
	Year       int
	Locked     bool
	Reason     *string
}

// SetLock locks or unlocks (contract, year). Unlocking requires a reason.
func (s *AdjustmentService) SetLock(workspaceID int32, input SetLockInput) (*domain.AdjustmentLock, error) {
	if err := domain.ValidateRenewalYear(input.Year); err != nil {
		return nil, err
	}

	var reason *string
	if !input.Locked {
		if input.Reason == nil || strings.TrimSpace(*input.Reason) == "" {
			return nil, domain.ErrUnlockReasonRequired
		}
		trimmed := strings.TrimSpace(*input.Reason)
		if len(trimmed) > domain.MaxDescriptionLength {
			return nil, domain.ErrAdjustmentNotesTooLong
		}
		reason = &trimmed
	}

	if _, err := s.contractRepo.GetByID(workspaceID, input.ContractID); err != nil {
		return nil, err
	}

	lock, err := s.lockRepo.Upsert(&domain.AdjustmentLock{
		WorkspaceID:  workspaceID,
		ContractID:   input.ContractID,
		RenewalYear:  int32(input.Year),
		IsLocked:     input.Locked,
		UnlockReason: reason,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.AdjustmentLockUpdated(lock))
	return lock, nil
}

// BulkAdjustInput applies one adjustment per contract, effective on each contract's renewal date in Year
type BulkAdjustInput struct {
	ContractIDs []int32
	Kind        domain.AdjustmentKind
	Magnitude   string
	Year        int
	Notes       *string
}

// BulkAdjustOutcome is the result for one contract of a bulk run
type BulkAdjustOutcome struct {
	ContractID int32                   `json:"contractId"`
	Outcome    string                  `json:"outcome"`
	Adjustment *domain.ValueAdjustment `json:"adjustment,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// BulkAdjustResult summarizes a bulk run
type BulkAdjustResult struct {
	Year     int                  `json:"year"`
	Applied  int                  `json:"applied"`
	Locked   int                  `json:"locked"`
	Failed   int                  `json:"failed"`
	Outcomes []*BulkAdjustOutcome `json:"outcomes"`
}

// BulkAdjust runs the renewal reajuste over several contracts. Locked or failing contracts are
// skipped; contracts that were adjusted get their (contract, year) locked afterwards.
func (s *AdjustmentService) BulkAdjust(workspaceID int32, input BulkAdjustInput) (*BulkAdjustResult, error) {
	if err := domain.ValidateRenewalYear(input.Year); err != nil {
		return nil, err
	}
	if len(input.ContractIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	// validated once; the effective date differs per contract
	template, err := parseAdjustmentInput(CreateAdjustmentInput{
		Kind:          input.Kind,
		Magnitude:     input.Magnitude,
		EffectiveDate: time.Date(input.Year, time.January, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		Notes:         input.Notes,
	})
	if err != nil {
		return nil, err
	}

	result := &BulkAdjustResult{Year: input.Year, Outcomes: make([]*BulkAdjustOutcome, 0, len(input.ContractIDs))}
	for _, contractID := range input.ContractIDs {
		outcome := s.bulkAdjustOne(workspaceID, contractID, input.Year, *template)
		switch outcome.Outcome {
		case BulkOutcomeApplied:
			result.Applied++
		case BulkOutcomeLocked:
			result.Locked++
		default:
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int("year", input.Year).
		Int("applied", result.Applied).
		Int("locked", result.Locked).
		Int("failed", result.Failed).
		Msg("Bulk adjustment finished")

	s.publishEvent(workspaceID, websocket.AdjustmentBulkApplied(result))
	return result, nil
}

func (s *AdjustmentService) bulkAdjustOne(workspaceID, contractID int32, year int, req adjustmentRequest) *BulkAdjustOutcome {
	outcome := &BulkAdjustOutcome{ContractID: contractID}

	contract, err := s.contractRepo.GetByID(workspaceID, contractID)
	if err != nil {
		outcome.Outcome = BulkOutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	lock, err := s.lockRepo.Get(workspaceID, contractID, int32(year))
	if err != nil {
		outcome.Outcome = BulkOutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}
	if lock.IsLocked {
		outcome.Outcome = BulkOutcomeLocked
		outcome.Error = domain.ErrPeriodLocked.Error()
		return outcome
	}

	req.effectiveDate = contract.RenewalDateForYear(year)
	created, err := s.record(contract, &req)
	if err != nil {
		outcome.Outcome = BulkOutcomeFailed
		if errors.Is(err, domain.ErrPeriodLocked) {
			outcome.Outcome = BulkOutcomeLocked
		}
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Outcome = BulkOutcomeApplied
	outcome.Adjustment = created

	if _, err := s.lockRepo.Upsert(&domain.AdjustmentLock{
		WorkspaceID: workspaceID,
		ContractID:  contractID,
		RenewalYear: int32(year),
		IsLocked:    true,
	}); err != nil {
		log.Error().Err(err).Int32("contract_id", contractID).Int("year", year).Msg("Failed to lock renewal year after bulk adjustment")
	}
	return outcome
}
