package response_models

// SubscriptionDetail mirrors the provider's subscription as seen by the owner.
type SubscriptionDetail struct {
	SubscriptionID     string `json:"subscription_id,omitempty"`
	PlanID             string `json:"plan_id"`
	Status             string `json:"status"`
	CurrentPeriodEndMs int64  `json:"current_period_end_ms,omitempty"`
	NumberOfBeds       int    `json:"number_of_beds"`
	HasBoost           bool   `json:"has_boost"`
}

type SubscriptionStatusResponse struct {
	Subscribed   bool                `json:"subscribed"`
	Subscription *SubscriptionDetail `json:"subscription,omitempty"`
	UpdatedAtMs  int64               `json:"updated_at_ms,omitempty"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}

type PromoResult struct {
	IsValid            bool    `json:"is_valid"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Message            string  `json:"message"`
}
