package billingclient

import (
	"strings"

	"carenest/internal/models/response_models"
	"carenest/internal/pricing"
)

// Selection is the owner's in-progress, not yet submitted choice.
type Selection struct {
	PlanID       string
	NumberOfBeds int
	BoostEnabled bool
	PromoCode    string
	Promo        response_models.PromoResult
}

func DefaultSelection() Selection {
	return Selection{NumberOfBeds: pricing.MinBeds}
}

// SetBedsInput accepts free text; anything unusable becomes one bed.
func (s *Selection) SetBedsInput(input string) {
	s.NumberOfBeds = pricing.ParseBedCount(input)
}

func (s *Selection) SetBeds(n int) {
	s.NumberOfBeds = pricing.ClampBeds(n)
}

func (s *Selection) SelectPlan(planID string) {
	s.PlanID = planID
}

func (s *Selection) SetBoost(enabled bool) {
	s.BoostEnabled = enabled
}

// ApplyPromo records a validation result; invalid results contribute no discount.
// A blank code clears any applied promo.
func (s *Selection) ApplyPromo(code string, result response_models.PromoResult) {
	if strings.TrimSpace(code) == "" {
		s.ClearPromo()
		return
	}
	if !result.IsValid {
		result.DiscountPercentage = 0
	}
	s.PromoCode = strings.TrimSpace(code)
	s.Promo = result
}

func (s *Selection) ClearPromo() {
	s.PromoCode = ""
	s.Promo = response_models.PromoResult{}
}

func (s Selection) DiscountPercentage() float64 {
	if !s.Promo.IsValid {
		return 0
	}
	return pricing.ClampDiscount(s.Promo.DiscountPercentage)
}

func (s Selection) Total(plan response_models.PlanResponse, boostPrice float64) float64 {
	return pricing.ComputeTotal(plan.PricePerBed, s.NumberOfBeds, s.BoostEnabled, boostPrice, s.DiscountPercentage())
}
