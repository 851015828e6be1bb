package controllers

import (
	"io"
	"net/http"

	"carenest/internal/services"
	"carenest/pkg/utils"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

type PaymentController struct {
	checkoutService services.CheckoutServiceInterface
}

func NewPaymentController(checkoutService services.CheckoutServiceInterface) *PaymentController {
	return &PaymentController{
		checkoutService: checkoutService,
	}
}

// HandleWebhook godoc
// @Summary Receive billing provider events
// @Description Verified with the Stripe-Signature header
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /payments/webhook [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, "Failed to read request body")
		return
	}

	if err := p.checkoutService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Webhook processed")
}
