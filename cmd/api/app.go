package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/margem-saas/margem-backend/internal/config"
	"github.com/margem-saas/margem-backend/internal/repository/postgres"
	"github.com/margem-saas/margem-backend/internal/repository/storage"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// app holds the wired repositories and services shared by every command
type app struct {
	cfg   *config.Config
	pool  *pgxpool.Pool
	store storage.ObjectStore

	workspaceRepo *postgres.WorkspaceRepository

	auth         *service.AuthService
	workspace    *service.WorkspaceService
	logo         *service.LogoService
	contract     *service.ContractService
	adjustment   *service.AdjustmentService
	addon        *service.AddonService
	costSettings *service.CostSettingsService
	profit       *service.ProfitService
	report       *service.ReportService
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("Connected to database")
	return pool, nil
}

// openStore returns a nil interface when object storage is not configured
func openStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	s3Store, err := storage.NewS3ObjectStore(ctx, cfg.S3)
	if errors.Is(err, storage.ErrStorageNotConfigured) {
		log.Warn().Msg("S3_BUCKET not set, logo uploads and report archiving are disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.S3.Bucket).Msg("Object storage ready")
	return s3Store, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// Repositories
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	contractRepo := postgres.NewContractRepository(pool)
	adjustmentRepo := postgres.NewValueAdjustmentRepository(pool)
	lockRepo := postgres.NewAdjustmentLockRepository(pool)
	addonRepo := postgres.NewAddonRepository(pool)
	bankSlipRepo := postgres.NewBankSlipCostRepository(pool)
	costPlanRepo := postgres.NewCostPlanRepository(pool)
	companyCostRepo := postgres.NewCompanyCostRepository(pool)

	// Services
	finance := cfg.Finance
	workspaceService := service.NewWorkspaceService(workspaceRepo)
	adjustmentService := service.NewAdjustmentService(adjustmentRepo, lockRepo, contractRepo)
	projector := service.NewRevenueProjector(adjustmentRepo, addonRepo, service.NewBillingCycleResolver(), cfg.AddonCycleGating)
	allocator := service.NewCostAllocator(finance.ExtraEmployeeUnitCost, finance.ExtraCNPJUnitCost)
	profitService := service.NewProfitService(workspaceRepo, contractRepo, adjustmentRepo, addonRepo, bankSlipRepo, costPlanRepo, companyCostRepo, projector, allocator)

	return &app{
		cfg:           cfg,
		pool:          pool,
		store:         store,
		workspaceRepo: workspaceRepo,
		auth:          service.NewAuthService(workspaceRepo, finance.DefaultTaxRatePercent),
		workspace:     workspaceService,
		logo:          service.NewLogoService(store, workspaceService),
		contract:      service.NewContractService(contractRepo, costPlanRepo),
		adjustment:    adjustmentService,
		addon:         service.NewAddonService(addonRepo, contractRepo, adjustmentRepo, adjustmentService),
		costSettings: service.NewCostSettingsService(costPlanRepo, companyCostRepo, bankSlipRepo, contractRepo, service.CostPlanDefaults{
			ExemptionMonths:       finance.DefaultExemptionMonths,
			ExtraEmployeeUnitCost: finance.ExtraEmployeeUnitCost,
			ExtraCNPJUnitCost:     finance.ExtraCNPJUnitCost,
		}),
		profit: profitService,
		report: service.NewReportService(profitService, store),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

// WorkspaceIDByAuth0ID serves both the HTTP auth middleware and the websocket authenticator
func (a *app) WorkspaceIDByAuth0ID(auth0ID string) (int32, error) {
	workspace, err := a.auth.GetWorkspaceByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}
