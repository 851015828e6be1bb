package plan_fx

import (
	"carenest/internal/repositories"
	"carenest/internal/services"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	providePlanRepo, providePlanService)

func providePlanRepo(db *gorm.DB) repositories.IPlanRepository {
	return repositories.NewPlanRepository(db)
}

func providePlanService(planRepo repositories.IPlanRepository, promoService services.PromoServiceInterface, logger *zap.Logger) services.PlanServiceInterface {
	return services.NewPlanService(planRepo, promoService, services.DefaultBoostPrice, logger)
}
