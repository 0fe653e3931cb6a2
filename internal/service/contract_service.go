package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/margem-saas/margem-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// ContractService handles contract registration and renewal bookkeeping
type ContractService struct {
	contractRepo   domain.ContractRepository
	costPlanRepo   domain.CostPlanRepository
	eventPublisher websocket.EventPublisher
}

// NewContractService creates a new ContractService
func NewContractService(contractRepo domain.ContractRepository, costPlanRepo domain.CostPlanRepository) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		costPlanRepo: costPlanRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ContractService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ContractService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// ContractInput holds the raw input for creating or updating a contract. BaseValue accepts locale
// currency strings and the dates accept either date format.
type ContractInput struct {
	ContractorName     string
	ContractorDocument string
	PlanType           domain.PlanType
	BaseValue          string
	StartDate          string
	TrialDays          int32
	RenewalDate        *string
	Status             *domain.ContractStatus
	EmployeeCount      int32
	CNPJCount          int32
	CostPlanID         *int32
}

func (s *ContractService) buildContract(workspaceID int32, input ContractInput) (*domain.Contract, error) {
	baseValue, err := domain.ParseMoney(input.BaseValue)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.StartDate) == "" {
		return nil, domain.ErrStartDateRequired
	}
	startDate, err := domain.ParseDate(input.StartDate)
	if err != nil {
		return nil, err
	}

	// a contract renews on its first anniversary unless told otherwise
	renewal := startDate.AddDate(1, 0, 0)
	if input.RenewalDate != nil && strings.TrimSpace(*input.RenewalDate) != "" {
		renewal, err = domain.ParseDate(*input.RenewalDate)
		if err != nil {
			return nil, err
		}
	}

	status := domain.ContractActive
	if input.Status != nil {
		status = *input.Status
	}

	contract := &domain.Contract{
		WorkspaceID:        workspaceID,
		ContractorName:     strings.TrimSpace(input.ContractorName),
		ContractorDocument: strings.TrimSpace(input.ContractorDocument),
		PlanType:           input.PlanType,
		BaseValue:          baseValue,
		StartDate:          startDate,
		TrialDays:          input.TrialDays,
		RenewalDate:        &renewal,
		Status:             status,
		EmployeeCount:      input.EmployeeCount,
		CNPJCount:          input.CNPJCount,
		CostPlanID:         input.CostPlanID,
	}
	if err := contract.Validate(); err != nil {
		return nil, err
	}

	if contract.CostPlanID != nil {
		if _, err := s.costPlanRepo.GetByID(workspaceID, *contract.CostPlanID); err != nil {
			return nil, err
		}
	}
	return contract, nil
}

// CreateContract registers a new contract
func (s *ContractService) CreateContract(workspaceID int32, input ContractInput) (*domain.Contract, error) {
	contract, err := s.buildContract(workspaceID, input)
	if err != nil {
		return nil, err
	}
	created, err := s.contractRepo.Create(contract)
	if err != nil {
		return nil, err
	}
	s.publishEvent(workspaceID, websocket.ContractCreated(created))
	return created, nil
}

// GetContract retrieves a contract
func (s *ContractService) GetContract(workspaceID, id int32) (*domain.Contract, error) {
	return s.contractRepo.GetByID(workspaceID, id)
}

// ListContracts lists the workspace's contracts
func (s *ContractService) ListContracts(workspaceID int32, filter domain.ContractFilter) ([]*domain.Contract, error) {
	return s.contractRepo.List(workspaceID, filter)
}

// UpdateContract replaces the editable fields of a contract
func (s *ContractService) UpdateContract(workspaceID, id int32, input ContractInput) (*domain.Contract, error) {
	existing, err := s.contractRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	contract, err := s.buildContract(workspaceID, input)
	if err != nil {
		return nil, err
	}
	if input.Status == nil {
		contract.Status = existing.Status
	}
	contract.ID = existing.ID
	contract.CreatedAt = existing.CreatedAt

	updated, err := s.contractRepo.Update(contract)
	if err != nil {
		return nil, err
	}
	s.publishEvent(workspaceID, websocket.ContractUpdated(updated))
	return updated, nil
}

// DeleteContract removes a contract and every ledger entry that depends on it
func (s *ContractService) DeleteContract(workspaceID, id int32) error {
	if err := s.contractRepo.Delete(workspaceID, id); err != nil {
		return err
	}
	s.publishEvent(workspaceID, websocket.ContractDeleted(map[string]int32{"id": id}))
	return nil
}

// NextRenewalDate returns the contract's renewal anniversary in year
func (s *ContractService) NextRenewalDate(workspaceID, id int32, year int) (time.Time, error) {
	if err := domain.ValidateRenewalYear(year); err != nil {
		return time.Time{}, err
	}
	contract, err := s.contractRepo.GetByID(workspaceID, id)
	if err != nil {
		return time.Time{}, err
	}
	return contract.RenewalDateForYear(year), nil
}

// RollRenewalDates moves renewal dates that already passed to the next anniversary on or after
// asOf. Returns how many contracts were moved.
func (s *ContractService) RollRenewalDates(workspaceID int32, asOf time.Time) (int, error) {
	active := domain.ContractActive
	contracts, err := s.contractRepo.List(workspaceID, domain.ContractFilter{Status: &active})
	if err != nil {
		return 0, err
	}

	today := domain.DateOnly(asOf)
	rolled := 0
	for _, c := range contracts {
		if c.RenewalDate == nil || !domain.DateOnly(*c.RenewalDate).Before(today) {
			continue
		}
		next := c.RenewalDateForYear(today.Year())
		if next.Before(today) {
			next = c.RenewalDateForYear(today.Year() + 1)
		}
		if err := s.contractRepo.UpdateRenewalDate(workspaceID, c.ID, next); err != nil {
			return rolled, err
		}
		rolled++
		metrics.RenewalRolls.Inc()
		log.Debug().Int32("workspace_id", workspaceID).Int32("contract_id", c.ID).Time("renewal_date", next).Msg("Renewal date rolled")
	}
	return rolled, nil
}

// UpcomingRenewals returns active contracts renewing within days of asOf (inclusive)
func (s *ContractService) UpcomingRenewals(workspaceID int32, asOf time.Time, days int) ([]*domain.Contract, error) {
	active := domain.ContractActive
	contracts, err := s.contractRepo.List(workspaceID, domain.ContractFilter{Status: &active})
	if err != nil {
		return nil, err
	}

	from := domain.DateOnly(asOf)
	until := from.AddDate(0, 0, days)
	result := []*domain.Contract{}
	for _, c := range contracts {
		if c.RenewalDate == nil {
			continue
		}
		renewal := domain.DateOnly(*c.RenewalDate)
		if !renewal.Before(from) && !renewal.After(until) {
			result = append(result, c)
		}
	}
	return result, nil
}

// ContractRecord is one row of a bulk import, every field still a raw string
type ContractRecord struct {
	ContractorName     string `json:"contractorName"`
	ContractorDocument string `json:"contractorDocument"`
	PlanType           string `json:"planType"`
	BaseValue          string `json:"baseValue"`
	StartDate          string `json:"startDate"`
	TrialDays          string `json:"trialDays"`
	RenewalDate        string `json:"renewalDate"`
	EmployeeCount      string `json:"employeeCount"`
	CNPJCount          string `json:"cnpjCount"`
}

// ImportError describes a skipped record
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult reports an import run
type ImportResult struct {
	Imported []*domain.Contract `json:"imported"`
	Skipped  []ImportError      `json:"skipped"`
}

// ImportContracts creates one contract per record. A bad record is skipped and reported; it never
// aborts the batch.
func (s *ContractService) ImportContracts(workspaceID int32, records []ContractRecord) (*ImportResult, error) {
	result := &ImportResult{Imported: []*domain.Contract{}, Skipped: []ImportError{}}

	for i, record := range records {
		row := i + 1
		input, err := record.toInput()
		if err == nil {
			var contract *domain.Contract
			if contract, err = s.buildContract(workspaceID, input); err == nil {
				contract, err = s.contractRepo.Create(contract)
				if err == nil {
					result.Imported = append(result.Imported, contract)
					continue
				}
			}
		}

		recordImportAnomaly(err)
		log.Warn().Err(err).Int32("workspace_id", workspaceID).Int("row", row).Str("contractor", record.ContractorName).Msg("Skipping contract import record")
		result.Skipped = append(result.Skipped, ImportError{Row: row, Error: err.Error()})
	}

	if len(result.Imported) > 0 {
		s.publishEvent(workspaceID, websocket.ContractsImported(map[string]int{
			"imported": len(result.Imported),
			"skipped":  len(result.Skipped),
		}))
	}
	return result, nil
}

func (r ContractRecord) toInput() (ContractInput, error) {
	trialDays, err := parseCount(r.TrialDays, "trialDays")
	if err != nil {
		return ContractInput{}, err
	}
	employees, err := parseCount(r.EmployeeCount, "employeeCount")
	if err != nil {
		return ContractInput{}, err
	}
	cnpjs, err := parseCount(r.CNPJCount, "cnpjCount")
	if err != nil {
		return ContractInput{}, err
	}

	input := ContractInput{
		ContractorName:     r.ContractorName,
		ContractorDocument: r.ContractorDocument,
		PlanType:           domain.PlanType(strings.ToLower(strings.TrimSpace(r.PlanType))),
		BaseValue:          r.BaseValue,
		StartDate:          r.StartDate,
		TrialDays:          trialDays,
		EmployeeCount:      employees,
		CNPJCount:          cnpjs,
	}
	if strings.TrimSpace(r.RenewalDate) != "" {
		renewal := r.RenewalDate
		input.RenewalDate = &renewal
	}
	return input, nil
}

func parseCount(raw, field string) (int32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, field)
	}
	return int32(n), nil
}

func recordImportAnomaly(err error) {
	switch {
	case errors.Is(err, domain.ErrUnparseableDate):
		metrics.RecordAnomaly(metrics.AnomalyUnparseableDate)
	case errors.Is(err, domain.ErrUnparseableCurrency):
		metrics.RecordAnomaly(metrics.AnomalyUnparseableCurrency)
	}
}
