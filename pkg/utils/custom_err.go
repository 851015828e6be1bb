package utils

import "errors"

var (
	ErrDatabaseError      = errors.New("database error")
	RecordNotFound        = errors.New("record not found")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrInvalidPromoCode   = errors.New("invalid promo code")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNoBillingCustomer  = errors.New("no billing customer for account")
	ErrProviderError      = errors.New("billing provider error")
	ErrProviderTimeout    = errors.New("billing provider timeout")
	ErrMissingRedirectURL = errors.New("provider returned no redirect url")
	ErrBillingDisabled    = errors.New("billing provider not configured")
	ErrInvalidWebhook     = errors.New("invalid webhook payload")
	ErrTooManyRequests    = errors.New("too many requests")
)
