package controllers

import (
	"net/http"

	"carenest/internal/models/request_models"
	"carenest/internal/services"
	"carenest/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PromoController struct {
	promoService services.PromoServiceInterface
}

func NewPromoController(promoService services.PromoServiceInterface) *PromoController {
	return &PromoController{
		promoService: promoService,
	}
}

// ValidatePromoCode godoc
// @Summary Validate a promo code
// @Description Returns a single-element list; invalid codes are a normal result, not an error
// @Tags Promo
// @Accept json
// @Produce json
// @Param request body request_models.ValidatePromoRequest true "Promo code"
// @Success 200 {object} utils.APIResponse
// @Router /promo/validate [post]
func (p *PromoController) ValidatePromoCode(c *gin.Context) {
	var request request_models.ValidatePromoRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	results, err := p.promoService.CheckPromoCode(c.Request.Context(), request.Code)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, results, "Promo code checked")
}
