package billingclient

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"carenest/internal/models/response_models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redirectFixture struct {
	api      *fakeRedirectAPI
	nav      *recordingNavigator
	notifier *recordingNotifier
	r        *Redirector
	waited   []time.Duration
}

func newRedirectFixture(sessions SessionProvider) *redirectFixture {
	f := &redirectFixture{
		api:      &fakeRedirectAPI{checkoutURL: "https://pay.example/session/abc", portalURL: "https://portal.example/p/1"},
		nav:      &recordingNavigator{},
		notifier: &recordingNotifier{},
	}
	f.r = NewRedirector(f.api, sessions, f.nav, f.notifier, RedirectConfig{
		LoginURL:            "https://app.example.com/login",
		SubscriptionPageURL: "https://app.example.com/subscription",
	}, nil)
	f.r.wait = func(ctx context.Context, d time.Duration) { f.waited = append(f.waited, d) }
	return f
}

func proSelection(beds int) Selection {
	sel := DefaultSelection()
	sel.SelectPlan("pro")
	sel.SetBeds(beds)
	return sel
}

func TestInitiateCheckoutSubscribeFlow(t *testing.T) {
	f := newRedirectFixture(signedIn())
	sel := proSelection(3)
	assert.Equal(t, 44.97, sel.Total(response_models.PlanResponse{ID: "pro", PricePerBed: 14.99}, 29.99))

	require.NoError(t, f.r.InitiateCheckout(context.Background(), sel))

	require.Len(t, f.api.checkouts, 1)
	req := f.api.checkouts[0]
	assert.Equal(t, "pro", req.PlanID)
	assert.Equal(t, 3, req.NumberOfBeds)
	assert.False(t, req.BoostEnabled)
	assert.Equal(t, []string{"https://pay.example/session/abc"}, f.nav.visited())
}

func TestInitiateCheckoutSendsOnlyValidPromo(t *testing.T) {
	f := newRedirectFixture(signedIn())

	sel := proSelection(1)
	sel.ApplyPromo("NOPE", response_models.PromoResult{IsValid: false})
	require.NoError(t, f.r.InitiateCheckout(context.Background(), sel))

	sel.ApplyPromo("WELCOME10", response_models.PromoResult{IsValid: true, DiscountPercentage: 10})
	require.NoError(t, f.r.InitiateCheckout(context.Background(), sel))

	assert.Empty(t, f.api.checkouts[0].PromoCode)
	assert.Equal(t, "WELCOME10", f.api.checkouts[1].PromoCode)
}

func TestInitiateCheckoutRequiresLogin(t *testing.T) {
	f := newRedirectFixture(NewStaticSession(nil))

	err := f.r.InitiateCheckout(context.Background(), proSelection(2))
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Empty(t, f.api.checkouts)

	visited := f.nav.visited()
	require.Len(t, visited, 1)
	u, err := url.Parse(visited[0])
	require.NoError(t, err)
	assert.Equal(t, "/login", u.Path)
	returnTo, err := url.Parse(u.Query().Get("return_to"))
	require.NoError(t, err)
	assert.Equal(t, "subscribe", returnTo.Query().Get("intent"))
	assert.Equal(t, "pro", returnTo.Query().Get("plan"))
	assert.Equal(t, "2", returnTo.Query().Get("beds"))
}

func TestInitiateCheckoutFailureStaysOnPage(t *testing.T) {
	f := newRedirectFixture(signedIn())
	f.api.checkoutErr = &APIError{Status: 502, Message: "Billing provider error"}

	err := f.r.InitiateCheckout(context.Background(), proSelection(1))
	assert.Error(t, err)
	assert.Empty(t, f.nav.visited())
	assert.Equal(t, 1, f.notifier.errorCount())
	assert.Len(t, f.api.checkouts, 1)
}

func TestInitiateCheckoutMissingURL(t *testing.T) {
	f := newRedirectFixture(signedIn())
	f.api.checkoutURL = ""

	err := f.r.InitiateCheckout(context.Background(), proSelection(1))
	assert.ErrorIs(t, err, ErrMissingURL)
	assert.Empty(t, f.nav.visited())
	assert.Equal(t, 1, f.notifier.errorCount())
}

func TestInitiateCheckoutWithoutPlan(t *testing.T) {
	f := newRedirectFixture(signedIn())
	err := f.r.InitiateCheckout(context.Background(), DefaultSelection())
	assert.ErrorIs(t, err, ErrNoPlanSelected)
	assert.Empty(t, f.api.checkouts)
}

func TestInitiateCheckoutRejectsDuplicate(t *testing.T) {
	f := newRedirectFixture(signedIn())
	f.api.gate = make(chan struct{})

	done := make(chan error)
	go func() { done <- f.r.InitiateCheckout(context.Background(), proSelection(1)) }()

	require.Eventually(t, f.r.Processing, time.Second, time.Millisecond)
	assert.ErrorIs(t, f.r.InitiateCheckout(context.Background(), proSelection(1)), ErrAlreadyProcessing)

	close(f.api.gate)
	require.NoError(t, <-done)
	assert.Len(t, f.api.checkouts, 1)
	assert.False(t, f.r.Processing())
}

func TestInitiateManageSuccess(t *testing.T) {
	f := newRedirectFixture(signedIn())
	require.NoError(t, f.r.InitiateManage(context.Background()))
	assert.Equal(t, []string{"https://portal.example/p/1"}, f.nav.visited())
}

func TestInitiateManageFailureFallsBackToSubscriptionPage(t *testing.T) {
	f := newRedirectFixture(signedIn())
	f.api.portalErr = errors.New("portal unavailable")

	err := f.r.InitiateManage(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, f.notifier.errorCount())
	assert.Equal(t, []time.Duration{DefaultManageFallbackDelay}, f.waited)
	assert.Equal(t, []string{"https://app.example.com/subscription"}, f.nav.visited())
}

func TestInitiateManageRequiresLogin(t *testing.T) {
	f := newRedirectFixture(NewStaticSession(nil))
	assert.ErrorIs(t, f.r.InitiateManage(context.Background()), ErrLoginRequired)
	assert.Zero(t, f.api.portals)

	u, err := url.Parse(f.nav.visited()[0])
	require.NoError(t, err)
	assert.Contains(t, u.Query().Get("return_to"), "intent=manage")
}
