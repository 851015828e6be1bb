package controllers

import (
	"net/http"
	"strconv"

	"carenest/internal/models/response_models"
	"carenest/internal/services"
	"carenest/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	planService services.PlanServiceInterface
}

func NewPlanController(planService services.PlanServiceInterface) *PlanController {
	return &PlanController{
		planService: planService,
	}
}

// ListPlans godoc
// @Summary List subscription plans
// @Description Plans with per-bed prices and the flat boost add-on price
// @Tags Plans
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /plans [get]
func (p *PlanController) ListPlans(c *gin.Context) {
	plans, err := p.planService.ListPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.PlanCatalogResponse{
		Plans:      plans,
		BoostPrice: p.planService.BoostPrice(),
	}, "Fetched plans successfully")
}

// GetPlan godoc
// @Summary Get a subscription plan
// @Tags Plans
// @Produce json
// @Param id path string true "Plan id (basic, pro, elite)"
// @Success 200 {object} utils.APIResponse
// @Router /plans/{id} [get]
func (p *PlanController) GetPlan(c *gin.Context) {
	plan, err := p.planService.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plan, "Fetched plan successfully")
}

// Quote godoc
// @Summary Price a plan selection
// @Description Bed input is free text; anything unparsable or below one counts as one bed
// @Tags Plans
// @Produce json
// @Param plan query string true "Plan id"
// @Param beds query string false "Number of beds"
// @Param boost query bool false "Include the boost add-on"
// @Param promo query string false "Promo code"
// @Success 200 {object} utils.APIResponse
// @Router /billing/quote [get]
func (p *PlanController) Quote(c *gin.Context) {
	planID := c.Query("plan")
	if planID == "" {
		utils.RespondError(c, http.StatusBadRequest, "plan is required")
		return
	}

	boost := false
	if raw := c.Query("boost"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Invalid boost flag")
			return
		}
		boost = v
	}

	quote, err := p.planService.Quote(c.Request.Context(), planID, c.DefaultQuery("beds", "1"), boost, c.Query("promo"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, quote, "Quote calculated successfully")
}
