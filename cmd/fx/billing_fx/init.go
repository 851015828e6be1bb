package billing_fx

import (
	"context"
	"time"

	"carenest/internal/billing"
	"carenest/internal/config"
	"carenest/internal/metrics"
	"carenest/internal/repositories"
	"carenest/internal/services"
	mem "carenest/pkg/memcache"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	metrics.NewBillingMetrics,
	provideProvider,
	provideStatusRepo,
	provideBillingService,
)

// provideProvider returns a nil Provider when Stripe is not configured; the
// billing endpoints then answer 503.
func provideProvider(cfg *config.Config, plans repositories.IPlanRepository, logger *zap.Logger) (billing.Provider, error) {
	if !cfg.BillingEnabled() {
		logger.Warn("STRIPE_SECRET_KEY not set, billing endpoints disabled")
		return nil, nil
	}

	prices := billing.PriceIDs{
		services.PlanBasic: cfg.StripePriceBasic,
		services.PlanPro:   cfg.StripePricePro,
		services.PlanElite: cfg.StripePriceElite,
	}.WithFallback(storedPriceIDs(plans, logger))

	p, err := billing.NewStripeProvider(billing.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PlanPrices:    prices,
		BoostPriceID:  cfg.StripePriceBoost,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// storedPriceIDs reads provider price ids kept on plan rows, used when the
// STRIPE_PRICE_* variables are unset.
func storedPriceIDs(plans repositories.IPlanRepository, logger *zap.Logger) map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := plans.GetAllPlans(ctx)
	if err != nil {
		logger.Warn("could not load plan price ids", zap.Error(err))
		return nil
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Code] = row.ProviderPriceID
	}
	return out
}

func provideStatusRepo(db *gorm.DB) repositories.SubscriptionStatusRepository {
	return repositories.NewSubscriptionStatusRepository(db)
}

func provideBillingService(
	provider billing.Provider,
	statusRepo repositories.SubscriptionStatusRepository,
	accountRepo repositories.AccountRepository,
	cache mem.StatusCache,
	m *metrics.BillingMetrics,
	cfg *config.Config,
	logger *zap.Logger,
) services.BillingServiceInterface {
	return services.NewBillingService(provider, statusRepo, accountRepo, cache, m, services.BillingServiceConfig{
		ProviderTimeout: cfg.ProviderTimeout,
		CacheTTL:        cfg.StatusCacheTTL,
	}, logger)
}
