package promo_fx

import (
	"carenest/internal/billing"
	"carenest/internal/config"
	"carenest/internal/metrics"
	"carenest/internal/repositories"
	"carenest/internal/services"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	providePromoRepo, providePromoService)

func providePromoRepo(db *gorm.DB) repositories.PromoCodeRepository {
	return repositories.NewPromoCodeRepository(db)
}

func providePromoService(
	promoRepo repositories.PromoCodeRepository,
	provider billing.Provider,
	m *metrics.BillingMetrics,
	cfg *config.Config,
	logger *zap.Logger,
) services.PromoServiceInterface {
	return services.NewPromoService(promoRepo, provider, m, cfg.ProviderTimeout, logger)
}
