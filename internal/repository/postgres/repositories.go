package postgres

import "github.com/margem-saas/margem-backend/internal/domain"

var (
	_ domain.WorkspaceRepository       = (*WorkspaceRepository)(nil)
	_ domain.ContractRepository        = (*ContractRepository)(nil)
	_ domain.ValueAdjustmentRepository = (*ValueAdjustmentRepository)(nil)
	_ domain.AdjustmentLockRepository  = (*AdjustmentLockRepository)(nil)
	_ domain.AddonRepository           = (*AddonRepository)(nil)
	_ domain.BankSlipCostRepository    = (*BankSlipCostRepository)(nil)
	_ domain.CostPlanRepository        = (*CostPlanRepository)(nil)
	_ domain.CompanyCostRepository     = (*CompanyCostRepository)(nil)
)
