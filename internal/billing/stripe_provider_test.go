package billing

import (
	"testing"
	"time"

	"carenest/internal/models/db_models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func newTestStripeProvider(t *testing.T) *StripeProvider {
	t.Helper()
	p, err := NewStripeProvider(StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		PlanPrices:    PriceIDs{"basic": "price_basic", "pro": "price_pro", "elite": "price_elite"},
		BoostPriceID:  "price_boost",
	})
	require.NoError(t, err)
	return p
}

func signedPayload(t *testing.T, payload string) (body []byte, header string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestNewStripeProviderRequiresKey(t *testing.T) {
	_, err := NewStripeProvider(StripeConfig{})
	assert.Error(t, err)
}

func TestMapStripeStatus(t *testing.T) {
	cases := map[stripe.SubscriptionStatus]db_models.SubscriptionState{
		stripe.SubscriptionStatusActive:            db_models.SubStateActive,
		stripe.SubscriptionStatusTrialing:          db_models.SubStateActive,
		stripe.SubscriptionStatusPastDue:           db_models.SubStateActive,
		stripe.SubscriptionStatusCanceled:          db_models.SubStateCanceled,
		stripe.SubscriptionStatusUnpaid:            db_models.SubStateExpired,
		stripe.SubscriptionStatusIncompleteExpired: db_models.SubStateExpired,
		stripe.SubscriptionStatusIncomplete:        db_models.SubStateNone,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapStripeStatus(in), "status %s", in)
	}
}

func TestToSubscriptionDerivesPlanBedsAndBoost(t *testing.T) {
	p := newTestStripeProvider(t)
	sub := &stripe.Subscription{
		ID:       "sub_1",
		Status:   stripe.SubscriptionStatusActive,
		Customer: &stripe.Customer{ID: "cus_1"},
		Metadata: map[string]string{"user_id": "u-1"},
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{
			{Price: &stripe.Price{ID: "price_pro"}, Quantity: 3, CurrentPeriodEnd: 1767225600},
			{Price: &stripe.Price{ID: "price_boost"}, Quantity: 1, CurrentPeriodEnd: 1767225600},
		}},
	}

	got := p.toSubscription(sub)
	assert.Equal(t, "sub_1", got.ID)
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "pro", got.PlanID)
	assert.Equal(t, 3, got.NumberOfBeds)
	assert.True(t, got.HasBoost)
	assert.Equal(t, db_models.SubStateActive, got.Status)
	assert.Equal(t, int64(1767225600), got.CurrentPeriodEnd.Unix())
}

func TestToSubscriptionWithoutItemsDefaultsToOneBed(t *testing.T) {
	p := newTestStripeProvider(t)
	got := p.toSubscription(&stripe.Subscription{ID: "sub_2", Status: stripe.SubscriptionStatusCanceled})
	assert.Equal(t, 1, got.NumberOfBeds)
	assert.False(t, got.HasBoost)
	assert.True(t, got.CurrentPeriodEnd.IsZero())
	assert.Equal(t, db_models.SubStateCanceled, got.Status)
}

func TestParseWebhookSubscriptionUpdated(t *testing.T) {
	p := newTestStripeProvider(t)
	body, header := signedPayload(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "customer.subscription.updated",
		"created": 1760000000,
		"data": {"object": {
			"id": "sub_9",
			"object": "subscription",
			"status": "active",
			"customer": "cus_9",
			"metadata": {"user_id": "7b0e8a53-5b8c-4f7e-9d55-1f1a9e5f2a10", "plan_id": "elite"},
			"items": {"object": "list", "data": [
				{"id": "si_1", "object": "subscription_item", "quantity": 5, "current_period_end": 1767225600,
				 "price": {"id": "price_elite", "object": "price"}}
			]}
		}}
	}`)

	ev, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventSubscriptionUpdated, ev.Type)
	assert.Equal(t, int64(1760000000), ev.Created.Unix())
	require.NotNil(t, ev.Subscription)
	assert.Equal(t, "elite", ev.Subscription.PlanID)
	assert.Equal(t, 5, ev.Subscription.NumberOfBeds)
	assert.Equal(t, "cus_9", ev.CustomerID)
	assert.Equal(t, "7b0e8a53-5b8c-4f7e-9d55-1f1a9e5f2a10", ev.UserID)
}

func TestParseWebhookCheckoutCompleted(t *testing.T) {
	p := newTestStripeProvider(t)
	body, header := signedPayload(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "checkout.session.completed",
		"created": 1760000100,
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"client_reference_id": "user-42",
			"customer": "cus_42"
		}}
	}`)

	ev, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_test_1", ev.CheckoutSessionID)
	assert.Equal(t, "user-42", ev.UserID)
	assert.Equal(t, "cus_42", ev.CustomerID)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	p := newTestStripeProvider(t)
	_, err := p.ParseWebhook([]byte(`{"id":"evt_3","type":"invoice.paid"}`), "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func TestPriceIDsWithFallback(t *testing.T) {
	env := PriceIDs{"basic": "price_env_basic", "pro": ""}
	merged := env.WithFallback(map[string]string{"basic": "price_db_basic", "pro": "price_db_pro", "elite": ""})

	assert.Equal(t, "price_env_basic", merged["basic"])
	assert.Equal(t, "price_db_pro", merged["pro"])
	assert.Empty(t, merged["elite"])
	assert.Empty(t, env["pro"])
}
