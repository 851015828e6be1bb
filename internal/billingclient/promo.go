package billingclient

import (
	"context"
	"strings"

	"carenest/internal/models/response_models"
	"carenest/internal/pricing"
)

const (
	MsgPromoInvalid          = "Invalid promo code"
	MsgPromoValidationFailed = "validation failed"
)

// ValidatePromoCode makes one remote call and never retries. A transport
// failure becomes an invalid result and an error notification.
func ValidatePromoCode(ctx context.Context, api PromoAPI, notifier Notifier, code string) response_models.PromoResult {
	code = strings.TrimSpace(code)
	if code == "" {
		return response_models.PromoResult{IsValid: false, Message: MsgPromoInvalid}
	}

	results, err := api.CheckPromoCode(ctx, code)
	if err != nil || len(results) == 0 {
		notifier.Error("Failed to validate promo code")
		return response_models.PromoResult{IsValid: false, Message: MsgPromoValidationFailed}
	}

	result := results[0]
	if !result.IsValid {
		result.DiscountPercentage = 0
		return result
	}
	result.DiscountPercentage = pricing.ClampDiscount(result.DiscountPercentage)
	return result
}
