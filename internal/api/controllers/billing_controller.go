package controllers

import (
	"errors"
	"io"
	"net/http"

	"carenest/internal/models/request_models"
	"carenest/internal/models/response_models"
	"carenest/internal/services"
	"carenest/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BillingController struct {
	billingService  services.BillingServiceInterface
	checkoutService services.CheckoutServiceInterface
}

func NewBillingController(billingService services.BillingServiceInterface, checkoutService services.CheckoutServiceInterface) *BillingController {
	return &BillingController{
		billingService:  billingService,
		checkoutService: checkoutService,
	}
}

// CheckSubscription godoc
// @Summary Check the caller's subscription with the billing provider
// @Description Authoritative; also refreshes the stored status row
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/status [get]
func (b *BillingController) CheckSubscription(c *gin.Context) {
	session, err := utils.SessionFrom(c)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	status, err := b.billingService.CheckSubscription(c.Request.Context(), session)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, status, "Subscription status fetched successfully")
}

// CachedStatus godoc
// @Summary Read the stored subscription status without calling the provider
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/status/cached [get]
func (b *BillingController) CachedStatus(c *gin.Context) {
	session, err := utils.SessionFrom(c)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	status, err := b.billingService.CachedStatus(c.Request.Context(), session.UserID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, status, "Subscription status fetched successfully")
}

// CreateCheckout godoc
// @Summary Create a hosted checkout session for a plan
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckoutRequest true "Checkout request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/checkout [post]
func (b *BillingController) CreateCheckout(c *gin.Context) {
	session, err := utils.SessionFrom(c)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	var request request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	url, err := b.checkoutService.CreateCheckout(c.Request.Context(), session, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.RedirectResponse{URL: url}, "Checkout session created successfully")
}

// CreatePortalSession godoc
// @Summary Create a customer portal session
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CreatePortalRequest false "Portal request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/portal [post]
func (b *BillingController) CreatePortalSession(c *gin.Context) {
	session, err := utils.SessionFrom(c)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	var request request_models.CreatePortalRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	url, err := b.checkoutService.CreatePortalSession(c.Request.Context(), session, request.ReturnURL)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.RedirectResponse{URL: url}, "Portal session created successfully")
}
