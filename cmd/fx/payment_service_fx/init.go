package payment_service_fx

import (
	"carenest/internal/api/controllers"
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
	provideCheckoutRepo, provideCheckoutService, providePaymentController,
)

func provideCheckoutRepo(db *gorm.DB) repositories.CheckoutRepository {
	return repositories.NewCheckoutRepository(db)
}

func provideCheckoutService(
	provider billing.Provider,
	billingService services.BillingServiceInterface,
	plans services.PlanServiceInterface,
	promos services.PromoServiceInterface,
	checkoutRepo repositories.CheckoutRepository,
	accountRepo repositories.AccountRepository,
	m *metrics.BillingMetrics,
	cfg *config.Config,
	logger *zap.Logger,
) services.CheckoutServiceInterface {
	return services.NewCheckoutService(provider, billingService, plans, promos, checkoutRepo, accountRepo,
		services.RedirectURLs{
			CheckoutSuccess: cfg.AppURL(cfg.CheckoutSuccessPath),
			CheckoutCancel:  cfg.AppURL(cfg.CheckoutCancelPath),
			PortalReturn:    cfg.AppURL(cfg.PortalReturnPath),
		}, cfg.ProviderTimeout, m, logger)
}

func providePaymentController(checkoutService services.CheckoutServiceInterface) *controllers.PaymentController {
	return controllers.NewPaymentController(checkoutService)
}
