// Package billing adapts the external billing provider (hosted checkout,
// customer portal, subscriptions, promotion codes and webhooks).
package billing

import (
	"context"
	"time"

	"carenest/internal/models/db_models"
)

// Subscription is the provider's view of an owner's subscription, already
// translated into plan ids and bed counts.
type Subscription struct {
	ID               string
	CustomerID       string
	UserID           string // from metadata set at checkout
	PlanID           string
	Status           db_models.SubscriptionState
	NumberOfBeds     int
	HasBoost         bool
	CurrentPeriodEnd time.Time
}

type CheckoutParams struct {
	UserID          string
	CustomerID      string
	CustomerEmail   string
	PlanID          string
	NumberOfBeds    int
	BoostEnabled    bool
	PromotionCodeID string
	// AllowPromotionCodes lets the owner enter a code on the hosted page when
	// PromotionCodeID is empty.
	AllowPromotionCodes bool
	SuccessURL          string
	CancelURL           string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PromotionCode struct {
	ID         string
	Code       string
	PercentOff float64
	Active     bool
	ExpiresAt  time.Time
}

type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventSubscriptionCreated EventType = "customer.subscription.created"
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

// Event is a verified webhook delivery. Only the fields for its Type are set.
type Event struct {
	ID         string
	Type       EventType
	Created    time.Time
	CustomerID string
	UserID     string

	CheckoutSessionID string
	Subscription      *Subscription
}

// Provider is implemented by StripeProvider; tests use fakes.
type Provider interface {
	// FindCustomer returns "" when the e-mail has no billing customer.
	FindCustomer(ctx context.Context, email string) (string, error)
	// CurrentSubscription prefers a live subscription and otherwise returns the
	// most recent ended one; nil when the customer never subscribed.
	CurrentSubscription(ctx context.Context, customerID string) (*Subscription, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	// LookupPromotionCode returns nil when the provider does not know the code.
	LookupPromotionCode(ctx context.Context, code string) (*PromotionCode, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
