package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"carenest/internal/models/db_models"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/promotioncode"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PriceIDs maps plan ids (basic/pro/elite) to Stripe recurring per-bed prices.
type PriceIDs map[string]string

// WithFallback returns a copy of p where empty or missing entries are taken
// from fallback.
func (p PriceIDs) WithFallback(fallback map[string]string) PriceIDs {
	out := make(PriceIDs, len(p))
	for planID, priceID := range p {
		out[planID] = priceID
	}
	for planID, priceID := range fallback {
		if out[planID] == "" && priceID != "" {
			out[planID] = priceID
		}
	}
	return out
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PlanPrices    PriceIDs
	BoostPriceID  string
}

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	webhookSecret string
	planPrices    PriceIDs
	boostPriceID  string
	planByPrice   map[string]string
}

func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("billing: missing stripe secret key")
	}
	stripe.Key = cfg.SecretKey

	byPrice := make(map[string]string, len(cfg.PlanPrices))
	for planID, priceID := range cfg.PlanPrices {
		if priceID != "" {
			byPrice[priceID] = planID
		}
	}

	return &StripeProvider{
		webhookSecret: cfg.WebhookSecret,
		planPrices:    cfg.PlanPrices,
		boostPriceID:  cfg.BoostPriceID,
		planByPrice:   byPrice,
	}, nil
}

func (p *StripeProvider) FindCustomer(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", nil
	}
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := customer.List(params)
	if it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("billing: list stripe customers: %w", err)
	}
	return "", nil
}

func (p *StripeProvider) CurrentSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(10)

	var latest *stripe.Subscription
	it := subscription.List(params)
	for it.Next() {
		sub := it.Subscription()
		if isLive(sub.Status) {
			return p.toSubscription(sub), nil
		}
		if latest == nil || sub.Created > latest.Created {
			latest = sub
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("billing: list stripe subscriptions: %w", err)
	}
	if latest == nil {
		return nil, nil
	}
	return p.toSubscription(latest), nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*CheckoutSession, error) {
	priceID, ok := p.planPrices[in.PlanID]
	if !ok || priceID == "" {
		return nil, fmt.Errorf("billing: no stripe price configured for plan %q", in.PlanID)
	}

	lineItems := []*stripe.CheckoutSessionLineItemParams{
		{Price: stripe.String(priceID), Quantity: stripe.Int64(int64(in.NumberOfBeds))},
	}
	if in.BoostEnabled {
		if p.boostPriceID == "" {
			return nil, fmt.Errorf("billing: boost requested but no stripe boost price configured")
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price: stripe.String(p.boostPriceID), Quantity: stripe.Int64(1),
		})
	}

	metadata := map[string]string{
		"user_id": in.UserID,
		"plan_id": in.PlanID,
		"beds":    strconv.Itoa(in.NumberOfBeds),
		"boost":   strconv.FormatBool(in.BoostEnabled),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		ClientReferenceID: stripe.String(in.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	if in.PromotionCodeID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{PromotionCode: stripe.String(in.PromotionCodeID)},
		}
	} else if in.AllowPromotionCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("billing: create stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe portal session: %w", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) LookupPromotionCode(ctx context.Context, code string) (*PromotionCode, error) {
	params := &stripe.PromotionCodeListParams{Code: stripe.String(code)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := promotioncode.List(params)
	if it.Next() {
		pc := it.PromotionCode()
		out := &PromotionCode{ID: pc.ID, Code: pc.Code, Active: pc.Active}
		if pc.Coupon != nil {
			out.PercentOff = pc.Coupon.PercentOff
			out.Active = out.Active && pc.Coupon.Valid
		}
		if pc.ExpiresAt > 0 {
			out.ExpiresAt = time.Unix(pc.ExpiresAt, 0)
		}
		return out, nil
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("billing: list stripe promotion codes: %w", err)
	}
	return nil, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the events we act on.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("billing: webhook signature verification failed: %w", err)
	}

	out := &Event{
		ID:      event.ID,
		Type:    EventType(event.Type),
		Created: time.Unix(event.Created, 0),
	}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("billing: parse checkout session event: %w", err)
		}
		out.CheckoutSessionID = sess.ID
		out.UserID = sess.ClientReferenceID
		if out.UserID == "" {
			out.UserID = sess.Metadata["user_id"]
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("billing: parse subscription event: %w", err)
		}
		out.Subscription = p.toSubscription(&sub)
		out.CustomerID = out.Subscription.CustomerID
		out.UserID = out.Subscription.UserID
	}
	return out, nil
}

func (p *StripeProvider) toSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:           sub.ID,
		UserID:       sub.Metadata["user_id"],
		PlanID:       sub.Metadata["plan_id"],
		Status:       MapStripeStatus(sub.Status),
		NumberOfBeds: 1,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}

	if sub.Items != nil {
		var periodEnd int64
		for _, item := range sub.Items.Data {
			if item == nil {
				continue
			}
			if item.CurrentPeriodEnd > periodEnd {
				periodEnd = item.CurrentPeriodEnd
			}
			if item.Price == nil {
				continue
			}
			if item.Price.ID == p.boostPriceID && p.boostPriceID != "" {
				out.HasBoost = true
				continue
			}
			if planID, ok := p.planByPrice[item.Price.ID]; ok {
				out.PlanID = planID
				if item.Quantity > 0 {
					out.NumberOfBeds = int(item.Quantity)
				}
			}
		}
		if periodEnd > 0 {
			out.CurrentPeriodEnd = time.Unix(periodEnd, 0)
		}
	}
	return out
}

func isLive(s stripe.SubscriptionStatus) bool {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing, stripe.SubscriptionStatusPastDue:
		return true
	}
	return false
}

// MapStripeStatus folds Stripe's lifecycle into active/canceled/expired/none.
func MapStripeStatus(s stripe.SubscriptionStatus) db_models.SubscriptionState {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing, stripe.SubscriptionStatusPastDue:
		return db_models.SubStateActive
	case stripe.SubscriptionStatusCanceled:
		return db_models.SubStateCanceled
	case stripe.SubscriptionStatusIncompleteExpired, stripe.SubscriptionStatusUnpaid:
		return db_models.SubStateExpired
	default:
		return db_models.SubStateNone
	}
}
