package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups every HTTP handler mounted under /api/v1
type Handlers struct {
	Auth         *AuthHandler
	Workspace    *WorkspaceHandler
	Contract     *ContractHandler
	Adjustment   *AdjustmentHandler
	Addon        *AddonHandler
	CostSettings *CostSettingsHandler
	Profit       *ProfitHandler
	Report       *ReportHandler
	WebSocket    *WebSocketHandler
}

// RegisterRoutes sets up all API routes. Report generation is throttled per workspace by rl.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rl *middleware.RateLimiter, h Handlers) {
	// API documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI3Spec)

	// Live updates authenticate through the token query parameter
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	api := e.Group("/api/v1")

	// Callback runs before a workspace exists
	auth := api.Group("/auth")
	auth.POST("/callback", h.Auth.Callback, authMiddleware.AuthenticateToken())
	auth.GET("/me", h.Auth.Me, authMiddleware.Authenticate())
	auth.POST("/logout", h.Auth.Logout, authMiddleware.AuthenticateToken())

	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())

	// Workspace settings
	workspace := protected.Group("/workspace")
	workspace.GET("", h.Workspace.GetWorkspace)
	workspace.PUT("", h.Workspace.UpdateWorkspace)
	workspace.POST("/logo", h.Workspace.UploadLogo)
	workspace.DELETE("/logo", h.Workspace.DeleteLogo)

	// Contracts; static paths precede /:id
	contracts := protected.Group("/contracts")
	contracts.POST("", h.Contract.CreateContract)
	contracts.GET("", h.Contract.GetContracts)
	contracts.POST("/import", h.Contract.ImportContracts)
	contracts.GET("/renewals", h.Contract.GetUpcomingRenewals)
	contracts.GET("/:id", h.Contract.GetContract)
	contracts.PUT("/:id", h.Contract.UpdateContract)
	contracts.DELETE("/:id", h.Contract.DeleteContract)
	contracts.GET("/:id/renewal-date", h.Contract.GetRenewalDate)
	contracts.GET("/:id/effective-value", h.Contract.GetEffectiveValue)
	contracts.GET("/:id/value-variation", h.Contract.GetValueVariation)
	contracts.GET("/:id/revenue", h.Profit.GetContractRevenue)

	// Value adjustments and renewal-year locks
	contracts.POST("/:id/adjustments", h.Adjustment.CreateAdjustment)
	contracts.POST("/:id/adjustments/preview", h.Adjustment.PreviewAdjustment)
	contracts.GET("/:id/adjustments", h.Adjustment.GetAdjustments)
	contracts.DELETE("/:id/adjustments/:adjustmentId", h.Adjustment.DeleteAdjustment)
	contracts.GET("/:id/locks", h.Adjustment.GetLocks)
	contracts.GET("/:id/locks/:year", h.Adjustment.GetLock)
	contracts.PUT("/:id/locks/:year", h.Adjustment.SetLock)
	protected.POST("/adjustments/bulk", h.Adjustment.BulkAdjust)

	// Addons
	contracts.POST("/:id/addons", h.Addon.CreateAddon)
	contracts.GET("/:id/addons", h.Addon.GetAddons)
	contracts.GET("/:id/addons/revenue", h.Addon.GetAddonRevenue)
	contracts.DELETE("/:id/addons/:addonId", h.Addon.DeleteAddon)

	// Cost settings
	contracts.GET("/:id/bank-slip-cost", h.CostSettings.GetBankSlipCost)
	contracts.PUT("/:id/bank-slip-cost", h.CostSettings.SetBankSlipCost)
	contracts.DELETE("/:id/bank-slip-cost", h.CostSettings.DeleteBankSlipCost)

	costPlans := protected.Group("/cost-plans")
	costPlans.POST("", h.CostSettings.CreateCostPlan)
	costPlans.GET("", h.CostSettings.GetCostPlans)
	costPlans.PUT("/:id", h.CostSettings.UpdateCostPlan)
	costPlans.DELETE("/:id", h.CostSettings.DeleteCostPlan)

	companyCosts := protected.Group("/company-costs")
	companyCosts.POST("", h.CostSettings.CreateCompanyCost)
	companyCosts.GET("", h.CostSettings.GetCompanyCosts)
	companyCosts.PUT("/:id", h.CostSettings.UpdateCompanyCost)
	companyCosts.DELETE("/:id", h.CostSettings.DeleteCompanyCost)

	// Profitability
	profit := protected.Group("/profit")
	profit.GET("/analysis", h.Profit.GetAnalysis)
	profit.GET("/metrics", h.Profit.GetMetrics)
	profit.GET("/contracts", h.Profit.GetContracts)
	profit.GET("/trend", h.Profit.GetTrend)

	// Reports
	reports := protected.Group("/reports")
	reports.Use(middleware.RateLimitMiddleware(rl))
	reports.GET("/profit", h.Report.DownloadProfitReport)
	reports.POST("/profit/archive", h.Report.ArchiveProfitReport)
}
