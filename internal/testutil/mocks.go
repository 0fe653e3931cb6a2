package testutil

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces   map[int32]*domain.Workspace
	ByAuth0ID    map[string]*domain.Workspace
	NextID       int32
	CreateFn     func(workspace *domain.Workspace) (*domain.Workspace, error)
	GetByAuth0Fn func(auth0ID string) (*domain.Workspace, error)
	ListIDsFn    func() ([]int32, error)
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces: make(map[int32]*domain.Workspace),
		ByAuth0ID:  make(map[string]*domain.Workspace),
		NextID:     1,
	}
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByAuth0ID retrieves a workspace by its owner's Auth0 ID
func (m *MockWorkspaceRepository) GetByAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if m.GetByAuth0Fn != nil {
		return m.GetByAuth0Fn(auth0ID)
	}
	if ws, ok := m.ByAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// Create creates a new workspace
func (m *MockWorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	if m.CreateFn != nil {
		return m.CreateFn(workspace)
	}
	workspace.ID = m.NextID
	m.NextID++
	workspace.CreatedAt = time.Now()
	workspace.UpdatedAt = workspace.CreatedAt
	m.AddWorkspace(workspace)
	return workspace, nil
}

// Update updates an existing workspace
func (m *MockWorkspaceRepository) Update(workspace *domain.Workspace) (*domain.Workspace, error) {
	if _, ok := m.Workspaces[workspace.ID]; !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	m.AddWorkspace(workspace)
	return workspace, nil
}

// ListIDs returns every workspace ID in ascending order
func (m *MockWorkspaceRepository) ListIDs() ([]int32, error) {
	if m.ListIDsFn != nil {
		return m.ListIDsFn()
	}
	ids := make([]int32, 0, len(m.Workspaces))
	for id := range m.Workspaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AddWorkspace adds a workspace to the mock repository (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(workspace *domain.Workspace) {
	m.Workspaces[workspace.ID] = workspace
	if workspace.Auth0ID != "" {
		m.ByAuth0ID[workspace.Auth0ID] = workspace
	}
}

// MockContractRepository is a mock implementation of domain.ContractRepository
type MockContractRepository struct {
	Contracts           map[int32]*domain.Contract
	NextID              int32
	CreateFn            func(contract *domain.Contract) (*domain.Contract, error)
	GetByIDFn           func(workspaceID int32, id int32) (*domain.Contract, error)
	ListFn              func(workspaceID int32, filter domain.ContractFilter) ([]*domain.Contract, error)
	UpdateFn            func(contract *domain.Contract) (*domain.Contract, error)
	UpdateRenewalDateFn func(workspaceID int32, id int32, renewalDate time.Time) error
	DeleteFn            func(workspaceID int32, id int32) error
}

// NewMockContractRepository creates a new MockContractRepository
func NewMockContractRepository() *MockContractRepository {
	return &MockContractRepository{
		Contracts: make(map[int32]*domain.Contract),
		NextID:    1,
	}
}

// Create stores a new contract
func (m *MockContractRepository) Create(contract *domain.Contract) (*domain.Contract, error) {
	if m.CreateFn != nil {
		return m.CreateFn(contract)
	}
	contract.ID = m.NextID
	m.NextID++
	contract.CreatedAt = time.Now()
	contract.UpdatedAt = contract.CreatedAt
	m.Contracts[contract.ID] = contract
	return contract, nil
}

// GetByID retrieves a contract within a workspace
func (m *MockContractRepository) GetByID(workspaceID int32, id int32) (*domain.Contract, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(workspaceID, id)
	}
	contract, ok := m.Contracts[id]
	if !ok || contract.WorkspaceID != workspaceID {
		return nil, domain.ErrContractNotFound
	}
	return contract, nil
}

// List returns the workspace's contracts ordered by ID
func (m *MockContractRepository) List(workspaceID int32, filter domain.ContractFilter) ([]*domain.Contract, error) {
	if m.ListFn != nil {
		return m.ListFn(workspaceID, filter)
	}
	result := []*domain.Contract{}
	for _, c := range m.Contracts {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.PlanType != nil && c.PlanType != *filter.PlanType {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.ContractorName), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update replaces a stored contract
func (m *MockContractRepository) Update(contract *domain.Contract) (*domain.Contract, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(contract)
	}
	existing, ok := m.Contracts[contract.ID]
	if !ok || existing.WorkspaceID != contract.WorkspaceID {
		return nil, domain.ErrContractNotFound
	}
	contract.CreatedAt = existing.CreatedAt
	contract.UpdatedAt = time.Now()
	m.Contracts[contract.ID] = contract
	return contract, nil
}

// UpdateRenewalDate sets only the renewal date
func (m *MockContractRepository) UpdateRenewalDate(workspaceID int32, id int32, renewalDate time.Time) error {
	if m.UpdateRenewalDateFn != nil {
		return m.UpdateRenewalDateFn(workspaceID, id, renewalDate)
	}
	contract, ok := m.Contracts[id]
	if !ok || contract.WorkspaceID != workspaceID {
		return domain.ErrContractNotFound
	}
	contract.RenewalDate = &renewalDate
	return nil
}

// Delete removes a contract
func (m *MockContractRepository) Delete(workspaceID int32, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(workspaceID, id)
	}
	contract, ok := m.Contracts[id]
	if !ok || contract.WorkspaceID != workspaceID {
		return domain.ErrContractNotFound
	}
	delete(m.Contracts, id)
	return nil
}

// AddContract adds a contract to the mock repository (helper for tests)
func (m *MockContractRepository) AddContract(contract *domain.Contract) {
	m.Contracts[contract.ID] = contract
	if contract.ID >= m.NextID {
		m.NextID = contract.ID + 1
	}
}

// MockAdjustmentLockRepository is a mock implementation of domain.AdjustmentLockRepository
type MockAdjustmentLockRepository struct {
	Locks    map[lockKey]*domain.AdjustmentLock
	NextID   int32
	GetFn    func(workspaceID int32, contractID int32, renewalYear int32) (*domain.AdjustmentLock, error)
	UpsertFn func(lock *domain.AdjustmentLock) (*domain.AdjustmentLock, error)
}

type lockKey struct {
	contractID int32
	year       int32
}

// NewMockAdjustmentLockRepository creates a new MockAdjustmentLockRepository
func NewMockAdjustmentLockRepository() *MockAdjustmentLockRepository {
	return &MockAdjustmentLockRepository{
		Locks:  make(map[lockKey]*domain.AdjustmentLock),
		NextID: 1,
	}
}

// Get returns the stored lock or an unlocked placeholder
func (m *MockAdjustmentLockRepository) Get(workspaceID int32, contractID int32, renewalYear int32) (*domain.AdjustmentLock, error) {
	if m.GetFn != nil {
		return m.GetFn(workspaceID, contractID, renewalYear)
	}
	if lock, ok := m.Locks[lockKey{contractID, renewalYear}]; ok && lock.WorkspaceID == workspaceID {
		return lock, nil
	}
	return &domain.AdjustmentLock{WorkspaceID: workspaceID, ContractID: contractID, RenewalYear: renewalYear}, nil
}

// ListByContract returns the contract's lock rows ordered by year
func (m *MockAdjustmentLockRepository) ListByContract(workspaceID int32, contractID int32) ([]*domain.AdjustmentLock, error) {
	result := []*domain.AdjustmentLock{}
	for key, lock := range m.Locks {
		if key.contractID == contractID && lock.WorkspaceID == workspaceID {
			result = append(result, lock)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RenewalYear < result[j].RenewalYear })
	return result, nil
}

// Upsert creates or updates the lock row for (contract, year)
func (m *MockAdjustmentLockRepository) Upsert(lock *domain.AdjustmentLock) (*domain.AdjustmentLock, error) {
	if m.UpsertFn != nil {
		return m.UpsertFn(lock)
	}
	key := lockKey{lock.ContractID, lock.RenewalYear}
	if existing, ok := m.Locks[key]; ok {
		lock.ID = existing.ID
	} else {
		lock.ID = m.NextID
		m.NextID++
	}
	lock.UpdatedAt = time.Now()
	m.Locks[key] = lock
	return lock, nil
}

// IsLocked is a helper for tests
func (m *MockAdjustmentLockRepository) IsLocked(contractID int32, year int32) bool {
	lock, ok := m.Locks[lockKey{contractID, year}]
	return ok && lock.IsLocked
}

// MockValueAdjustmentRepository is a mock implementation of domain.ValueAdjustmentRepository.
// CreateIfUnlocked consults Locks the way the database transaction does.
type MockValueAdjustmentRepository struct {
	Adjustments        map[int32]*domain.ValueAdjustment
	Locks              *MockAdjustmentLockRepository
	NextID             int32
	CreateCalls        int
	CreateIfUnlockedFn func(adjustment *domain.ValueAdjustment, renewalYear int) (*domain.ValueAdjustment, error)
	ListByContractFn   func(workspaceID int32, contractID int32) ([]*domain.ValueAdjustment, error)
	ListByWorkspaceFn  func(workspaceID int32) ([]*domain.ValueAdjustment, error)
}

// NewMockValueAdjustmentRepository creates a new MockValueAdjustmentRepository sharing the given lock store
func NewMockValueAdjustmentRepository(locks *MockAdjustmentLockRepository) *MockValueAdjustmentRepository {
	if locks == nil {
		locks = NewMockAdjustmentLockRepository()
	}
	return &MockValueAdjustmentRepository{
		Adjustments: make(map[int32]*domain.ValueAdjustment),
		Locks:       locks,
		NextID:      1,
	}
}

// CreateIfUnlocked inserts the adjustment unless (contract, renewal year) is locked
func (m *MockValueAdjustmentRepository) CreateIfUnlocked(adjustment *domain.ValueAdjustment, renewalYear int) (*domain.ValueAdjustment, error) {
	m.CreateCalls++
	if m.CreateIfUnlockedFn != nil {
		return m.CreateIfUnlockedFn(adjustment, renewalYear)
	}
	if m.Locks.IsLocked(adjustment.ContractID, int32(renewalYear)) {
		return nil, domain.ErrPeriodLocked
	}
	adjustment.ID = m.NextID
	m.NextID++
	if adjustment.CreatedAt.IsZero() {
		adjustment.CreatedAt = time.Now()
	}
	m.Adjustments[adjustment.ID] = adjustment
	return adjustment, nil
}

// GetByID retrieves an adjustment within a workspace
func (m *MockValueAdjustmentRepository) GetByID(workspaceID int32, id int32) (*domain.ValueAdjustment, error) {
	adj, ok := m.Adjustments[id]
	if !ok || adj.WorkspaceID != workspaceID {
		return nil, domain.ErrAdjustmentNotFound
	}
	return adj, nil
}

// ListByContract returns a contract's adjustments ordered by effective date
func (m *MockValueAdjustmentRepository) ListByContract(workspaceID int32, contractID int32) ([]*domain.ValueAdjustment, error) {
	if m.ListByContractFn != nil {
		return m.ListByContractFn(workspaceID, contractID)
	}
	result := []*domain.ValueAdjustment{}
	for _, adj := range m.Adjustments {
		if adj.WorkspaceID == workspaceID && adj.ContractID == contractID {
			result = append(result, adj)
		}
	}
	sortAdjustments(result)
	return result, nil
}

// ListByWorkspace returns every adjustment in the workspace
func (m *MockValueAdjustmentRepository) ListByWorkspace(workspaceID int32) ([]*domain.ValueAdjustment, error) {
	if m.ListByWorkspaceFn != nil {
		return m.ListByWorkspaceFn(workspaceID)
	}
	result := []*domain.ValueAdjustment{}
	for _, adj := range m.Adjustments {
		if adj.WorkspaceID == workspaceID {
			result = append(result, adj)
		}
	}
	sortAdjustments(result)
	return result, nil
}

// Delete removes an adjustment
func (m *MockValueAdjustmentRepository) Delete(workspaceID int32, id int32) error {
	adj, ok := m.Adjustments[id]
	if !ok || adj.WorkspaceID != workspaceID {
		return domain.ErrAdjustmentNotFound
	}
	delete(m.Adjustments, id)
	return nil
}

// AddAdjustment adds an adjustment to the mock repository (helper for tests)
func (m *MockValueAdjustmentRepository) AddAdjustment(adjustment *domain.ValueAdjustment) {
	m.Adjustments[adjustment.ID] = adjustment
	if adjustment.ID >= m.NextID {
		m.NextID = adjustment.ID + 1
	}
}

func sortAdjustments(adjustments []*domain.ValueAdjustment) {
	sort.Slice(adjustments, func(i, j int) bool {
		if adjustments[i].EffectiveDate.Equal(adjustments[j].EffectiveDate) {
			return adjustments[i].ID < adjustments[j].ID
		}
		return adjustments[i].EffectiveDate.Before(adjustments[j].EffectiveDate)
	})
}

// MockAddonRepository is a mock implementation of domain.AddonRepository. Effects are written to
// AdjustmentRepo and ContractRepo only after every step of Create succeeded, like the transaction.
type MockAddonRepository struct {
	Addons            map[int32]*domain.Addon
	NextID            int32
	AdjustmentRepo    *MockValueAdjustmentRepository
	ContractRepo      *MockContractRepository
	CreateFn          func(addon *domain.Addon) (*domain.Addon, error)
	ListByWorkspaceFn func(workspaceID int32) ([]*domain.Addon, error)
}

// NewMockAddonRepository creates a new MockAddonRepository
func NewMockAddonRepository() *MockAddonRepository {
	return &MockAddonRepository{
		Addons: make(map[int32]*domain.Addon),
		NextID: 1,
	}
}

// Create stores a new addon together with its effects, or nothing at all
func (m *MockAddonRepository) Create(addon *domain.Addon, effects domain.AddonEffects) (*domain.Addon, error) {
	if adj := effects.Adjustment; adj != nil {
		if m.AdjustmentRepo == nil {
			return nil, errors.New("mock addon repository has no adjustment repository")
		}
		if m.AdjustmentRepo.Locks.IsLocked(adj.ContractID, int32(adj.RenewalYear())) {
			return nil, domain.ErrPeriodLocked
		}
	}
	var contract *domain.Contract
	if terms := effects.PlanTerms; terms != nil {
		if m.ContractRepo == nil {
			return nil, errors.New("mock addon repository has no contract repository")
		}
		existing, ok := m.ContractRepo.Contracts[terms.ID]
		if !ok || existing.WorkspaceID != terms.WorkspaceID {
			return nil, domain.ErrContractNotFound
		}
		copied := *existing
		copied.PlanType = terms.PlanType
		copied.EmployeeCount = terms.EmployeeCount
		copied.CNPJCount = terms.CNPJCount
		copied.UpdatedAt = time.Now()
		contract = &copied
	}

	var created *domain.Addon
	if m.CreateFn != nil {
		result, err := m.CreateFn(addon)
		if err != nil {
			return nil, err
		}
		created = result
	} else {
		addon.ID = m.NextID
		m.NextID++
		addon.CreatedAt = time.Now()
		m.Addons[addon.ID] = addon
		created = addon
	}

	if effects.Adjustment != nil {
		stored, err := m.AdjustmentRepo.CreateIfUnlocked(effects.Adjustment, effects.Adjustment.RenewalYear())
		if err != nil {
			return nil, err
		}
		*effects.Adjustment = *stored
	}
	if contract != nil {
		m.ContractRepo.Contracts[contract.ID] = contract
		*effects.PlanTerms = *contract
	}
	return created, nil
}

// GetByID retrieves an addon within a workspace
func (m *MockAddonRepository) GetByID(workspaceID int32, id int32) (*domain.Addon, error) {
	addon, ok := m.Addons[id]
	if !ok || addon.WorkspaceID != workspaceID {
		return nil, domain.ErrAddonNotFound
	}
	return addon, nil
}

// ListByContract returns a contract's addons ordered by request date
func (m *MockAddonRepository) ListByContract(workspaceID int32, contractID int32) ([]*domain.Addon, error) {
	result := []*domain.Addon{}
	for _, addon := range m.Addons {
		if addon.WorkspaceID == workspaceID && addon.ContractID == contractID {
			result = append(result, addon)
		}
	}
	sortAddons(result)
	return result, nil
}

// ListByWorkspace returns every addon in the workspace
func (m *MockAddonRepository) ListByWorkspace(workspaceID int32) ([]*domain.Addon, error) {
	if m.ListByWorkspaceFn != nil {
		return m.ListByWorkspaceFn(workspaceID)
	}
	result := []*domain.Addon{}
	for _, addon := range m.Addons {
		if addon.WorkspaceID == workspaceID {
			result = append(result, addon)
		}
	}
	sortAddons(result)
	return result, nil
}

// Delete removes an addon
func (m *MockAddonRepository) Delete(workspaceID int32, id int32) error {
	addon, ok := m.Addons[id]
	if !ok || addon.WorkspaceID != workspaceID {
		return domain.ErrAddonNotFound
	}
	delete(m.Addons, id)
	return nil
}

// AddAddon adds an addon to the mock repository (helper for tests)
func (m *MockAddonRepository) AddAddon(addon *domain.Addon) {
	m.Addons[addon.ID] = addon
	if addon.ID >= m.NextID {
		m.NextID = addon.ID + 1
	}
}

func sortAddons(addons []*domain.Addon) {
	sort.Slice(addons, func(i, j int) bool {
		if addons[i].RequestDate.Equal(addons[j].RequestDate) {
			return addons[i].ID < addons[j].ID
		}
		return addons[i].RequestDate.Before(addons[j].RequestDate)
	})
}

// MockBankSlipCostRepository is a mock implementation of domain.BankSlipCostRepository
type MockBankSlipCostRepository struct {
	Costs  map[int32]*domain.BankSlipCost
	NextID int32
}

// NewMockBankSlipCostRepository creates a new MockBankSlipCostRepository
func NewMockBankSlipCostRepository() *MockBankSlipCostRepository {
	return &MockBankSlipCostRepository{
		Costs:  make(map[int32]*domain.BankSlipCost),
		NextID: 1,
	}
}

// GetByContract returns the contract's bank-slip fee configuration
func (m *MockBankSlipCostRepository) GetByContract(workspaceID int32, contractID int32) (*domain.BankSlipCost, error) {
	cost, ok := m.Costs[contractID]
	if !ok || cost.WorkspaceID != workspaceID {
		return nil, domain.ErrBankSlipCostNotFound
	}
	return cost, nil
}

// ListByWorkspace returns every bank-slip configuration in the workspace
func (m *MockBankSlipCostRepository) ListByWorkspace(workspaceID int32) ([]*domain.BankSlipCost, error) {
	result := []*domain.BankSlipCost{}
	for _, cost := range m.Costs {
		if cost.WorkspaceID == workspaceID {
			result = append(result, cost)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ContractID < result[j].ContractID })
	return result, nil
}

// Upsert stores the configuration keyed by contract
func (m *MockBankSlipCostRepository) Upsert(cost *domain.BankSlipCost) (*domain.BankSlipCost, error) {
	if existing, ok := m.Costs[cost.ContractID]; ok {
		cost.ID = existing.ID
	} else {
		cost.ID = m.NextID
		m.NextID++
	}
	cost.UpdatedAt = time.Now()
	m.Costs[cost.ContractID] = cost
	return cost, nil
}

// Delete removes the contract's configuration
func (m *MockBankSlipCostRepository) Delete(workspaceID int32, contractID int32) error {
	cost, ok := m.Costs[contractID]
	if !ok || cost.WorkspaceID != workspaceID {
		return domain.ErrBankSlipCostNotFound
	}
	delete(m.Costs, contractID)
	return nil
}

// MockCostPlanRepository is a mock implementation of domain.CostPlanRepository
type MockCostPlanRepository struct {
	Plans  map[int32]*domain.CostPlan
	NextID int32
	ListFn func(workspaceID int32) ([]*domain.CostPlan, error)
}

// NewMockCostPlanRepository creates a new MockCostPlanRepository
func NewMockCostPlanRepository() *MockCostPlanRepository {
	return &MockCostPlanRepository{
		Plans:  make(map[int32]*domain.CostPlan),
		NextID: 1,
	}
}

// Create stores a new cost plan
func (m *MockCostPlanRepository) Create(plan *domain.CostPlan) (*domain.CostPlan, error) {
	plan.ID = m.NextID
	m.NextID++
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	m.Plans[plan.ID] = plan
	return plan, nil
}

// GetByID retrieves a cost plan within a workspace
func (m *MockCostPlanRepository) GetByID(workspaceID int32, id int32) (*domain.CostPlan, error) {
	plan, ok := m.Plans[id]
	if !ok || plan.WorkspaceID != workspaceID {
		return nil, domain.ErrCostPlanNotFound
	}
	return plan, nil
}

// List returns the workspace's cost plans ordered by ID
func (m *MockCostPlanRepository) List(workspaceID int32) ([]*domain.CostPlan, error) {
	if m.ListFn != nil {
		return m.ListFn(workspaceID)
	}
	result := []*domain.CostPlan{}
	for _, plan := range m.Plans {
		if plan.WorkspaceID == workspaceID {
			result = append(result, plan)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update replaces a stored cost plan
func (m *MockCostPlanRepository) Update(plan *domain.CostPlan) (*domain.CostPlan, error) {
	existing, ok := m.Plans[plan.ID]
	if !ok || existing.WorkspaceID != plan.WorkspaceID {
		return nil, domain.ErrCostPlanNotFound
	}
	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now()
	m.Plans[plan.ID] = plan
	return plan, nil
}

// Delete removes a cost plan
func (m *MockCostPlanRepository) Delete(workspaceID int32, id int32) error {
	plan, ok := m.Plans[id]
	if !ok || plan.WorkspaceID != workspaceID {
		return domain.ErrCostPlanNotFound
	}
	delete(m.Plans, id)
	return nil
}

// AddPlan adds a cost plan to the mock repository (helper for tests)
func (m *MockCostPlanRepository) AddPlan(plan *domain.CostPlan) {
	m.Plans[plan.ID] = plan
	if plan.ID >= m.NextID {
		m.NextID = plan.ID + 1
	}
}

// MockCompanyCostRepository is a mock implementation of domain.CompanyCostRepository
type MockCompanyCostRepository struct {
	Costs  map[int32]*domain.CompanyCost
	NextID int32
	ListFn func(workspaceID int32) ([]*domain.CompanyCost, error)
}

// NewMockCompanyCostRepository creates a new MockCompanyCostRepository
func NewMockCompanyCostRepository() *MockCompanyCostRepository {
	return &MockCompanyCostRepository{
		Costs:  make(map[int32]*domain.CompanyCost),
		NextID: 1,
	}
}

// Create stores a new company cost
func (m *MockCompanyCostRepository) Create(cost *domain.CompanyCost) (*domain.CompanyCost, error) {
	cost.ID = m.NextID
	m.NextID++
	cost.CreatedAt = time.Now()
	cost.UpdatedAt = cost.CreatedAt
	m.Costs[cost.ID] = cost
	return cost, nil
}

// GetByID retrieves a company cost within a workspace
func (m *MockCompanyCostRepository) GetByID(workspaceID int32, id int32) (*domain.CompanyCost, error) {
	cost, ok := m.Costs[id]
	if !ok || cost.WorkspaceID != workspaceID {
		return nil, domain.ErrCompanyCostNotFound
	}
	return cost, nil
}

// List returns the workspace's company costs ordered by ID
func (m *MockCompanyCostRepository) List(workspaceID int32) ([]*domain.CompanyCost, error) {
	if m.ListFn != nil {
		return m.ListFn(workspaceID)
	}
	result := []*domain.CompanyCost{}
	for _, cost := range m.Costs {
		if cost.WorkspaceID == workspaceID {
			result = append(result, cost)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update replaces a stored company cost
func (m *MockCompanyCostRepository) Update(cost *domain.CompanyCost) (*domain.CompanyCost, error) {
	existing, ok := m.Costs[cost.ID]
	if !ok || existing.WorkspaceID != cost.WorkspaceID {
		return nil, domain.ErrCompanyCostNotFound
	}
	cost.CreatedAt = existing.CreatedAt
	cost.UpdatedAt = time.Now()
	m.Costs[cost.ID] = cost
	return cost, nil
}

// Delete removes a company cost
func (m *MockCompanyCostRepository) Delete(workspaceID int32, id int32) error {
	cost, ok := m.Costs[id]
	if !ok || cost.WorkspaceID != workspaceID {
		return domain.ErrCompanyCostNotFound
	}
	delete(m.Costs, id)
	return nil
}

// AddCost adds a company cost to the mock repository (helper for tests)
func (m *MockCompanyCostRepository) AddCost(workspaceID int32, description string, amount decimal.Decimal) *domain.CompanyCost {
	cost := &domain.CompanyCost{
		ID:            m.NextID,
		WorkspaceID:   workspaceID,
		Description:   description,
		MonthlyAmount: amount,
		IsActive:      true,
	}
	m.NextID++
	m.Costs[cost.ID] = cost
	return cost
}
