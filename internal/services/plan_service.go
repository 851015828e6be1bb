package services

import (
	"context"

	"carenest/internal/models/db_models"
	"carenest/internal/models/response_models"
	"carenest/internal/pricing"
	"carenest/internal/repositories"
	"carenest/pkg/utils"

	"go.uber.org/zap"
)

type PlanServiceInterface interface {
	ListPlans(ctx context.Context) ([]response_models.PlanResponse, error)
	GetPlan(ctx context.Context, planID string) (response_models.PlanResponse, error)
	BoostPrice() float64
	Quote(ctx context.Context, planID, bedsInput string, boostEnabled bool, promoCode string) (response_models.QuoteResponse, error)
}

func NewPlanService(planRepo repositories.IPlanRepository, promoService PromoServiceInterface, boostPrice float64, logger *zap.Logger) PlanServiceInterface {
	if boostPrice <= 0 {
		boostPrice = DefaultBoostPrice
	}
	return &PlanService{
		planRepo:     planRepo,
		promoService: promoService,
		boostPrice:   boostPrice,
		logger:       logger,
	}
}

type PlanService struct {
	planRepo     repositories.IPlanRepository
	promoService PromoServiceInterface
	boostPrice   float64
	logger       *zap.Logger
}

func (p *PlanService) ListPlans(ctx context.Context) ([]response_models.PlanResponse, error) {
	rows, err := p.planRepo.GetAllPlans(ctx)
	if err != nil {
		p.logger.Warn("plans table unavailable, serving built-in catalog", zap.Error(err))
		return withLabels(defaultPlans), nil
	}

	var plans []response_models.PlanResponse
	for _, row := range rows {
		if !IsKnownPlan(row.Code) {
			continue
		}
		plans = append(plans, toPlanResponse(row))
	}
	if len(plans) == 0 {
		return withLabels(defaultPlans), nil
	}
	return plans, nil
}

func (p *PlanService) GetPlan(ctx context.Context, planID string) (response_models.PlanResponse, error) {
	if !IsKnownPlan(planID) {
		return response_models.PlanResponse{}, utils.ErrInvalidPlan
	}

	row, err := p.planRepo.GetPlanByCode(ctx, planID)
	if err != nil {
		p.logger.Warn("plan lookup failed, serving built-in catalog", zap.String("plan_id", planID), zap.Error(err))
	}
	if row != nil {
		return toPlanResponse(*row), nil
	}

	for _, plan := range withLabels(defaultPlans) {
		if plan.ID == planID {
			return plan, nil
		}
	}
	return response_models.PlanResponse{}, utils.ErrInvalidPlan
}

func (p *PlanService) BoostPrice() float64 {
	return p.boostPrice
}

// Quote prices a selection the way plan cards do. An unusable promo code
// is reported in the message and contributes a zero discount.
func (p *PlanService) Quote(ctx context.Context, planID, bedsInput string, boostEnabled bool, promoCode string) (response_models.QuoteResponse, error) {
	plan, err := p.GetPlan(ctx, planID)
	if err != nil {
		return response_models.QuoteResponse{}, err
	}

	beds := pricing.ParseBedCount(bedsInput)
	quote := response_models.QuoteResponse{
		PlanID:       plan.ID,
		NumberOfBeds: beds,
		BoostEnabled: boostEnabled,
		PricePerBed:  plan.PricePerBed,
		BoostPrice:   p.boostPrice,
	}

	if promoCode != "" {
		results, err := p.promoService.CheckPromoCode(ctx, promoCode)
		switch {
		case err != nil:
			quote.PromoMessage = PromoMsgValidationFailed
		case len(results) > 0:
			quote.PromoMessage = results[0].Message
			if results[0].IsValid {
				quote.DiscountPercentage = results[0].DiscountPercentage
			}
		}
	}

	quote.Total = pricing.ComputeTotal(plan.PricePerBed, beds, boostEnabled, p.boostPrice, quote.DiscountPercentage)
	quote.TotalLabel = pricing.FormatUSD(quote.Total)
	return quote, nil
}

func toPlanResponse(row db_models.Plan) response_models.PlanResponse {
	price := pricing.FromMinor(row.PricePerBedMinor)
	out := response_models.PlanResponse{
		ID:               row.Code,
		Name:             row.Name,
		PricePerBed:      price,
		PricePerBedLabel: pricing.FormatUSD(price),
		Currency:         row.Currency,
		Features:         []string(row.Features),
		Recommended:      row.Recommended,
	}
	if row.Description != nil {
		out.Description = *row.Description
	}
	if out.Features == nil {
		out.Features = []string{}
	}
	return out
}

func withLabels(plans []response_models.PlanResponse) []response_models.PlanResponse {
	out := make([]response_models.PlanResponse, len(plans))
	for i, plan := range plans {
		plan.Features = append([]string(nil), plan.Features...)
		plan.PricePerBedLabel = pricing.FormatUSD(plan.PricePerBed)
		out[i] = plan
	}
	return out
}
