package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceIDOf(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceIDOf(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceIDOf(c),
	})
}

// ErrCodeUnauthenticated is the machine-readable code sent with every 401.
const ErrCodeUnauthenticated = "unauthenticated"

// RespondUnauthenticated answers 401 with ErrCodeUnauthenticated.
func RespondUnauthenticated(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, APIResponse{
		Status:  "error",
		Code:    http.StatusUnauthorized,
		Message: message,
		Error:   ErrCodeUnauthenticated,
		TraceID: traceIDOf(c),
	})
}

// HandleServiceError maps service-layer sentinel errors to HTTP responses.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		RespondUnauthenticated(c, "Authentication required")
	case errors.Is(err, ErrInvalidPlan):
		RespondError(c, http.StatusBadRequest, "Unknown plan")
	case errors.Is(err, ErrInvalidPromoCode):
		RespondError(c, http.StatusBadRequest, "Invalid promo code")
	case errors.Is(err, ErrInvalidWebhook):
		RespondError(c, http.StatusBadRequest, "Invalid webhook payload")
	case errors.Is(err, RecordNotFound):
		RespondError(c, http.StatusNotFound, "Record not found")
	case errors.Is(err, ErrNoBillingCustomer):
		RespondError(c, http.StatusNotFound, "No billing account found")
	case errors.Is(err, ErrTooManyRequests):
		RespondError(c, http.StatusTooManyRequests, "Too many requests, slow down")
	case errors.Is(err, ErrProviderTimeout):
		zap.L().Warn("billing provider timeout", zap.String("trace_id", traceIDOf(c)), zap.Error(err))
		RespondError(c, http.StatusGatewayTimeout, "Billing provider timed out")
	case errors.Is(err, ErrMissingRedirectURL), errors.Is(err, ErrProviderError):
		zap.L().Error("billing provider error", zap.String("trace_id", traceIDOf(c)), zap.Error(err))
		RespondError(c, http.StatusBadGateway, "Billing provider unavailable")
	case errors.Is(err, ErrBillingDisabled):
		RespondError(c, http.StatusServiceUnavailable, "Billing is not configured")
	case errors.Is(err, ErrDatabaseError):
		zap.L().Error("database error", zap.String("trace_id", traceIDOf(c)), zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		zap.L().Error("unknown error", zap.String("trace_id", traceIDOf(c)), zap.Error(err))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
