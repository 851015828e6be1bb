package services

import "carenest/internal/models/response_models"

const (
	PlanBasic = "basic"
	PlanPro   = "pro"
	PlanElite = "elite"

	DefaultBoostPrice = 29.99
)

// defaultPlans is served when the plans table has no active rows.
var defaultPlans = []response_models.PlanResponse{
	{
		ID:          PlanBasic,
		Name:        "Basic",
		PricePerBed: 9.99,
		Currency:    "USD",
		Features: []string{
			"One care-home listing",
			"Up to 5 photos per listing",
			"Inquiry inbox",
		},
	},
	{
		ID:          PlanPro,
		Name:        "Pro",
		PricePerBed: 14.99,
		Currency:    "USD",
		Features: []string{
			"Unlimited listings",
			"Up to 25 photos and a video tour",
			"Inquiry inbox with e-mail alerts",
			"Listing analytics",
		},
		Recommended: true,
	},
	{
		ID:          PlanElite,
		Name:        "Elite",
		PricePerBed: 24.99,
		Currency:    "USD",
		Features: []string{
			"Everything in Pro",
			"Featured placement in search",
			"Verified-owner badge",
			"Priority support",
		},
	},
}

func IsKnownPlan(id string) bool {
	switch id {
	case PlanBasic, PlanPro, PlanElite:
		return true
	}
	return false
}
