package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/margem-saas/margem-backend/internal/config"
	"github.com/margem-saas/margem-backend/internal/handler"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/repository/postgres"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/margem-saas/margem-backend/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := postgres.Migrate(ctx, a.pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Live updates
	hub := websocket.NewHub()
	a.workspace.SetEventPublisher(hub)
	a.contract.SetEventPublisher(hub)
	a.adjustment.SetEventPublisher(hub)
	a.addon.SetEventPublisher(hub)
	a.costSettings.SetEventPublisher(hub)

	// Auth
	tokenValidator, err := middleware.NewAuth0Validator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		return fmt.Errorf("create token validator: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddlewareWithValidator(tokenValidator, a)
	socketAuth := websocket.NewTokenAuthenticator(tokenValidator, a)

	rl := middleware.NewRateLimiterWithConfig(cfg.ReportRateLimit, cfg.ReportRateLimit)
	defer rl.Stop()

	renewals := service.NewRenewalWorker(a.contract, a.workspaceRepo, hub, log.Logger, service.RenewalWorkerConfig{
		Interval:   cfg.RenewalWorkerInterval,
		NoticeDays: cfg.RenewalNoticeDays,
	})

	e := newEcho(cfg, a)
	handler.RegisterRoutes(e, authMiddleware, rl, handler.Handlers{
		Auth:         handler.NewAuthHandler(a.auth),
		Workspace:    handler.NewWorkspaceHandler(a.workspace, a.logo),
		Contract:     handler.NewContractHandler(a.contract, a.adjustment, a.addon),
		Adjustment:   handler.NewAdjustmentHandler(a.adjustment),
		Addon:        handler.NewAddonHandler(a.addon),
		CostSettings: handler.NewCostSettingsHandler(a.costSettings),
		Profit:       handler.NewProfitHandler(a.profit),
		Report:       handler.NewReportHandler(a.report),
		WebSocket:    handler.NewWebSocketHandler(hub, socketAuth, cfg.CORSOrigins),
	})

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		renewals.Start(gctx)
		<-gctx.Done()

		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		renewals.Stop()
		hub.Shutdown()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Metrics server forced to shutdown")
		}
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}

func newEcho(cfg *config.Config, a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))
	e.Use(middleware.RequestLogger(log.Logger))
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		if err := a.pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": Version,
		})
	})
	return e
}
