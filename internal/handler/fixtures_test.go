package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/repository/storage"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/margem-saas/margem-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testWorkspaceID int32 = 1

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

// apiFixture wires every handler to services backed by in-memory repositories
type apiFixture struct {
	workspaces   *testutil.MockWorkspaceRepository
	contracts    *testutil.MockContractRepository
	locks        *testutil.MockAdjustmentLockRepository
	adjustments  *testutil.MockValueAdjustmentRepository
	addons       *testutil.MockAddonRepository
	bankSlips    *testutil.MockBankSlipCostRepository
	costPlans    *testutil.MockCostPlanRepository
	companyCosts *testutil.MockCompanyCostRepository
	store        *testutil.MockObjectStore
	publisher    *testutil.MockEventPublisher

	auth         *AuthHandler
	workspace    *WorkspaceHandler
	contract     *ContractHandler
	adjustment   *AdjustmentHandler
	addon        *AddonHandler
	costSettings *CostSettingsHandler
	profit       *ProfitHandler
	report       *ReportHandler
}

// newAPIFixture builds the handlers. withStore enables logo uploads and report archiving.
func newAPIFixture(withStore bool) *apiFixture {
	locks := testutil.NewMockAdjustmentLockRepository()
	f := &apiFixture{
		workspaces:   testutil.NewMockWorkspaceRepository(),
		contracts:    testutil.NewMockContractRepository(),
		locks:        locks,
		adjustments:  testutil.NewMockValueAdjustmentRepository(locks),
		addons:       testutil.NewMockAddonRepository(),
		bankSlips:    testutil.NewMockBankSlipCostRepository(),
		costPlans:    testutil.NewMockCostPlanRepository(),
		companyCosts: testutil.NewMockCompanyCostRepository(),
		publisher:    testutil.NewMockEventPublisher(),
	}
	f.addons.AdjustmentRepo = f.adjustments
	f.addons.ContractRepo = f.contracts
	f.workspaces.AddWorkspace(&domain.Workspace{
		ID:             testWorkspaceID,
		Auth0ID:        "auth0|owner",
		OwnerEmail:     "owner@example.com",
		Name:           "Margem Ltda",
		TaxRatePercent: decimal.NewFromInt(10),
	})

	var store storage.ObjectStore
	if withStore {
		f.store = testutil.NewMockObjectStore()
		store = f.store
	}

	unitCost := decimal.NewFromInt(5)
	authService := service.NewAuthService(f.workspaces, decimal.NewFromInt(6))
	workspaceService := service.NewWorkspaceService(f.workspaces)
	contractService := service.NewContractService(f.contracts, f.costPlans)
	adjustmentService := service.NewAdjustmentService(f.adjustments, f.locks, f.contracts)
	addonService := service.NewAddonService(f.addons, f.contracts, f.adjustments, adjustmentService)
	costSettingsService := service.NewCostSettingsService(f.costPlans, f.companyCosts, f.bankSlips, f.contracts, service.CostPlanDefaults{
		ExtraEmployeeUnitCost: unitCost,
		ExtraCNPJUnitCost:     unitCost,
	})
	projector := service.NewRevenueProjector(f.adjustments, f.addons, service.NewBillingCycleResolver(), false)
	allocator := service.NewCostAllocator(unitCost, unitCost)
	profitService := service.NewProfitService(f.workspaces, f.contracts, f.adjustments, f.addons, f.bankSlips, f.costPlans, f.companyCosts, projector, allocator)
	reportService := service.NewReportService(profitService, store)
	logoService := service.NewLogoService(store, workspaceService)

	contractService.SetEventPublisher(f.publisher)
	adjustmentService.SetEventPublisher(f.publisher)
	addonService.SetEventPublisher(f.publisher)
	costSettingsService.SetEventPublisher(f.publisher)

	f.auth = NewAuthHandler(authService)
	f.workspace = NewWorkspaceHandler(workspaceService, logoService)
	f.contract = NewContractHandler(contractService, adjustmentService, addonService)
	f.contract.now = func() time.Time { return testNow }
	f.adjustment = NewAdjustmentHandler(adjustmentService)
	f.addon = NewAddonHandler(addonService)
	f.costSettings = NewCostSettingsHandler(costSettingsService)
	f.profit = NewProfitHandler(profitService)
	f.profit.now = func() time.Time { return testNow }
	f.report = NewReportHandler(reportService)
	f.report.now = func() time.Time { return testNow }
	return f
}

// addContract stores an active contract with ten employees and one CNPJ
func (f *apiFixture) addContract(name string, plan domain.PlanType, value string, start string) *domain.Contract {
	startDate, err := domain.ParseDate(start)
	if err != nil {
		panic(err)
	}
	renewal := startDate.AddDate(1, 0, 0)
	contract := &domain.Contract{
		WorkspaceID:    testWorkspaceID,
		ContractorName: name,
		PlanType:       plan,
		BaseValue:      decimal.RequireFromString(value),
		StartDate:      startDate,
		RenewalDate:    &renewal,
		Status:         domain.ContractActive,
		EmployeeCount:  10,
		CNPJCount:      1,
	}
	created, _ := f.contracts.Create(contract)
	return created
}

// newContext builds a request carrying workspaceID (0 means unauthenticated) and a JSON body
func newContext(method, target, body string, workspaceID int32) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if workspaceID > 0 {
		ctx := context.WithValue(req.Context(), middleware.WorkspaceIDKey, workspaceID)
		c.SetRequest(req.WithContext(ctx))
	}
	return c, rec
}

func withParams(c echo.Context, pairs ...string) echo.Context {
	names := make([]string, 0, len(pairs)/2)
	values := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
		values = append(values, pairs[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

// setupAuthContext attaches validated Auth0 claims, and the workspace when workspaceID > 0
func setupAuthContext(c echo.Context, auth0ID, email, name string, workspaceID int32) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
		CustomClaims:     &middleware.CustomClaims{Email: email, Name: name},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if workspaceID > 0 {
		ctx = context.WithValue(ctx, middleware.WorkspaceIDKey, workspaceID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	decodeBody(t, rec, &problem)
	return problem
}
