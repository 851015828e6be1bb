package billingclient

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"carenest/internal/models/request_models"
	"carenest/internal/pricing"

	"go.uber.org/zap"
)

var (
	ErrLoginRequired     = errors.New("billingclient: login required")
	ErrAlreadyProcessing = errors.New("billingclient: request already in progress")
	ErrNoPlanSelected    = errors.New("billingclient: no plan selected")
)

const DefaultManageFallbackDelay = 2 * time.Second

type RedirectConfig struct {
	// LoginURL receives a return_to parameter carrying the interrupted intent.
	LoginURL string
	// SubscriptionPageURL is the in-app page used as the manage fallback and return target.
	SubscriptionPageURL string
	SuccessURL          string
	CancelURL           string
	FallbackDelay       time.Duration
}

// Redirector hands the owner off to hosted checkout or the customer portal.
// It never learns whether payment completed; the next reconciliation does.
type Redirector struct {
	api      RedirectAPI
	sessions SessionProvider
	nav      Navigator
	notifier Notifier
	cfg      RedirectConfig
	logger   *zap.Logger

	checkoutBusy atomic.Bool
	manageBusy   atomic.Bool

	wait func(ctx context.Context, d time.Duration)
}

func NewRedirector(api RedirectAPI, sessions SessionProvider, nav Navigator, notifier Notifier, cfg RedirectConfig, logger *zap.Logger) *Redirector {
	if cfg.FallbackDelay <= 0 {
		cfg.FallbackDelay = DefaultManageFallbackDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redirector{
		api:      api,
		sessions: sessions,
		nav:      nav,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		wait:     sleepCtx,
	}
}

// Processing reports whether a checkout or portal request is outstanding.
func (r *Redirector) Processing() bool {
	return r.checkoutBusy.Load() || r.manageBusy.Load()
}

func (r *Redirector) InitiateCheckout(ctx context.Context, sel Selection) error {
	if sel.PlanID == "" {
		r.notifier.Error("Please choose a plan first")
		return ErrNoPlanSelected
	}
	if _, ok := r.sessions.CurrentUser(); !ok {
		r.toLogin(checkoutIntent(sel))
		return ErrLoginRequired
	}
	if !r.checkoutBusy.CompareAndSwap(false, true) {
		return ErrAlreadyProcessing
	}
	defer r.checkoutBusy.Store(false)

	req := request_models.CreateCheckoutRequest{
		PlanID:       sel.PlanID,
		NumberOfBeds: pricing.ClampBeds(sel.NumberOfBeds),
		BoostEnabled: sel.BoostEnabled,
		SuccessURL:   r.cfg.SuccessURL,
		CancelURL:    r.cfg.CancelURL,
	}
	if sel.Promo.IsValid {
		req.PromoCode = sel.PromoCode
	}

	dest, err := r.api.CreateCheckout(ctx, req)
	if err == nil && dest == "" {
		err = ErrMissingURL
	}
	if err != nil {
		r.logger.Warn("checkout hand-off failed", zap.String("plan_id", sel.PlanID), zap.Error(err))
		if errors.Is(err, ErrUnauthenticated) {
			r.toLogin(checkoutIntent(sel))
			return ErrLoginRequired
		}
		r.notifier.Error("Failed to start checkout. Please try again.")
		return err
	}

	r.nav.Navigate(dest)
	return nil
}

// InitiateManage opens the customer portal. On failure the owner is told and,
// after FallbackDelay, taken to the in-app subscription page.
func (r *Redirector) InitiateManage(ctx context.Context) error {
	if _, ok := r.sessions.CurrentUser(); !ok {
		r.toLogin(manageIntent())
		return ErrLoginRequired
	}
	if !r.manageBusy.CompareAndSwap(false, true) {
		return ErrAlreadyProcessing
	}
	defer r.manageBusy.Store(false)

	dest, err := r.api.CreatePortalSession(ctx)
	if err == nil && dest == "" {
		err = ErrMissingURL
	}
	if err != nil {
		r.logger.Warn("portal hand-off failed", zap.Error(err))
		if errors.Is(err, ErrUnauthenticated) {
			r.toLogin(manageIntent())
			return ErrLoginRequired
		}
		r.notifier.Error("Failed to open subscription management. Please try again.")
		r.wait(ctx, r.cfg.FallbackDelay)
		if ctx.Err() == nil && r.cfg.SubscriptionPageURL != "" {
			r.nav.Navigate(r.cfg.SubscriptionPageURL)
		}
		return err
	}

	r.nav.Navigate(dest)
	return nil
}

func (r *Redirector) toLogin(intent url.Values) {
	r.nav.Navigate(loginURL(r.cfg, intent))
}

// loginURL points at the login page with a return_to back to the subscription
// page, carrying intent so the interrupted action can resume.
func loginURL(cfg RedirectConfig, intent url.Values) string {
	returnTo := cfg.SubscriptionPageURL
	if returnTo == "" {
		returnTo = "/subscription"
	}
	if len(intent) > 0 {
		returnTo += "?" + intent.Encode()
	}

	dest := cfg.LoginURL
	if dest == "" {
		dest = "/login"
	}
	return dest + "?" + url.Values{"return_to": {returnTo}}.Encode()
}

func checkoutIntent(sel Selection) url.Values {
	v := url.Values{}
	v.Set("intent", "subscribe")
	v.Set("plan", sel.PlanID)
	v.Set("beds", strconv.Itoa(pricing.ClampBeds(sel.NumberOfBeds)))
	v.Set("boost", strconv.FormatBool(sel.BoostEnabled))
	return v
}

func manageIntent() url.Values {
	return url.Values{"intent": {"manage"}}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
