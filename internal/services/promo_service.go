package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carenest/internal/billing"
	"carenest/internal/metrics"
	"carenest/internal/models/response_models"
	"carenest/internal/repositories"
	"carenest/pkg/utils"

	"go.uber.org/zap"
)

const (
	PromoMsgApplied          = "Promo code applied"
	PromoMsgInvalid          = "Invalid promo code"
	PromoMsgExpired          = "Promo code has expired"
	PromoMsgExhausted        = "Promo code is no longer available"
	PromoMsgValidationFailed = "validation failed"
)

// ResolvedPromo is a validated code plus the provider-side id used at checkout.
type ResolvedPromo struct {
	Result              response_models.PromoResult
	ProviderPromotionID string
}

type PromoServiceInterface interface {
	// CheckPromoCode is list-shaped like the original remote procedure: exactly one result.
	CheckPromoCode(ctx context.Context, code string) ([]response_models.PromoResult, error)
	Resolve(ctx context.Context, code string) (ResolvedPromo, error)
}

type PromoService struct {
	promoRepo repositories.PromoCodeRepository
	provider  billing.Provider
	metrics   *metrics.BillingMetrics
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewPromoService(promoRepo repositories.PromoCodeRepository, provider billing.Provider, m *metrics.BillingMetrics, timeout time.Duration, logger *zap.Logger) PromoServiceInterface {
	return &PromoService{
		promoRepo: promoRepo,
		provider:  provider,
		metrics:   m,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

func (p *PromoService) CheckPromoCode(ctx context.Context, code string) ([]response_models.PromoResult, error) {
	resolved, err := p.Resolve(ctx, code)
	if err != nil {
		p.metrics.PromoValidations.WithLabelValues("error").Inc()
		return nil, err
	}
	if resolved.Result.IsValid {
		p.metrics.PromoValidations.WithLabelValues("valid").Inc()
	} else {
		p.metrics.PromoValidations.WithLabelValues("invalid").Inc()
	}
	return []response_models.PromoResult{resolved.Result}, nil
}

func (p *PromoService) Resolve(ctx context.Context, code string) (ResolvedPromo, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return invalidPromo(PromoMsgInvalid), nil
	}

	local, err := p.promoRepo.FindByCode(ctx, code)
	if err != nil {
		return ResolvedPromo{}, fmt.Errorf("%w: find promo code: %v", utils.ErrDatabaseError, err)
	}
	if local != nil {
		now := p.now()
		switch {
		case !local.Active:
			return invalidPromo(PromoMsgInvalid), nil
		case local.ExpiresAt != nil && now.Unix() >= *local.ExpiresAt:
			return invalidPromo(PromoMsgExpired), nil
		case local.MaxRedemptions != nil && local.Redemptions >= *local.MaxRedemptions:
			return invalidPromo(PromoMsgExhausted), nil
		case local.DiscountPercentage <= 0 || local.DiscountPercentage > 100:
			p.logger.Warn("promo code has out-of-range discount", zap.String("code", local.Code), zap.Float64("discount", local.DiscountPercentage))
			return invalidPromo(PromoMsgInvalid), nil
		}
		return ResolvedPromo{
			Result: response_models.PromoResult{
				IsValid:            true,
				DiscountPercentage: local.DiscountPercentage,
				Message:            PromoMsgApplied,
			},
			ProviderPromotionID: local.ProviderPromotionID,
		}, nil
	}

	if p.provider == nil {
		return invalidPromo(PromoMsgInvalid), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	remote, err := p.provider.LookupPromotionCode(callCtx, code)
	p.metrics.ProviderLatency.WithLabelValues("lookup_promotion_code").Observe(time.Since(start).Seconds())
	if err != nil {
		return ResolvedPromo{}, providerError(callCtx, err)
	}
	if remote == nil || !remote.Active || remote.PercentOff <= 0 {
		return invalidPromo(PromoMsgInvalid), nil
	}
	if !remote.ExpiresAt.IsZero() && !p.now().Before(remote.ExpiresAt) {
		return invalidPromo(PromoMsgExpired), nil
	}

	return ResolvedPromo{
		Result: response_models.PromoResult{
			IsValid:            true,
			DiscountPercentage: remote.PercentOff,
			Message:            PromoMsgApplied,
		},
		ProviderPromotionID: remote.ID,
	}, nil
}

func invalidPromo(message string) ResolvedPromo {
	return ResolvedPromo{Result: response_models.PromoResult{IsValid: false, Message: message}}
}
