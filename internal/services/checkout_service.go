package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carenest/internal/billing"
	"carenest/internal/metrics"
	"carenest/internal/models/db_models"
	"carenest/internal/models/request_models"
	"carenest/internal/pricing"
	"carenest/internal/repositories"
	"carenest/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RedirectURLs struct {
	CheckoutSuccess string
	CheckoutCancel  string
	PortalReturn    string
}

type CheckoutServiceInterface interface {
	// CreateCheckout hands the owner off to the hosted checkout page. The caller
	// never learns here whether payment completed; that arrives via webhook.
	CreateCheckout(ctx context.Context, session utils.Session, req request_models.CreateCheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, session utils.Session, returnURL string) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type checkoutService struct {
	provider     billing.Provider
	billing      BillingServiceInterface
	plans        PlanServiceInterface
	promos       PromoServiceInterface
	checkoutRepo repositories.CheckoutRepository
	accountRepo  repositories.AccountRepository
	urls         RedirectURLs
	timeout      time.Duration
	metrics      *metrics.BillingMetrics
	logger       *zap.Logger
	providerName string
}

func NewCheckoutService(
	provider billing.Provider,
	billingService BillingServiceInterface,
	plans PlanServiceInterface,
	promos PromoServiceInterface,
	checkoutRepo repositories.CheckoutRepository,
	accountRepo repositories.AccountRepository,
	urls RedirectURLs,
	timeout time.Duration,
	m *metrics.BillingMetrics,
	logger *zap.Logger,
) CheckoutServiceInterface {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &checkoutService{
		provider:     provider,
		billing:      billingService,
		plans:        plans,
		promos:       promos,
		checkoutRepo: checkoutRepo,
		accountRepo:  accountRepo,
		urls:         urls,
		timeout:      timeout,
		metrics:      m,
		logger:       logger,
		providerName: "stripe",
	}
}

func (c *checkoutService) CreateCheckout(ctx context.Context, session utils.Session, req request_models.CreateCheckoutRequest) (string, error) {
	if c.provider == nil {
		return "", utils.ErrBillingDisabled
	}
	if _, err := c.plans.GetPlan(ctx, req.PlanID); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	beds := pricing.ClampBeds(req.NumberOfBeds)
	params := billing.CheckoutParams{
		UserID:        session.UserID.String(),
		CustomerEmail: session.Email,
		PlanID:        req.PlanID,
		NumberOfBeds:  beds,
		BoostEnabled:  req.BoostEnabled,
		SuccessURL:    firstNonEmpty(req.SuccessURL, c.urls.CheckoutSuccess),
		CancelURL:     firstNonEmpty(req.CancelURL, c.urls.CheckoutCancel),
	}

	if req.PromoCode != "" {
		promo, err := c.promos.Resolve(ctx, req.PromoCode)
		if err != nil {
			return "", err
		}
		if !promo.Result.IsValid {
			return "", fmt.Errorf("%w: %s", utils.ErrInvalidPromoCode, promo.Result.Message)
		}
		if promo.ProviderPromotionID == "" {
			c.logger.Warn("promo code has no provider promotion, owner must re-enter it at checkout",
				zap.String("code", req.PromoCode))
			params.AllowPromotionCodes = true
		}
		params.PromotionCodeID = promo.ProviderPromotionID
	}

	customerID, err := c.billing.ResolveCustomerID(ctx, session)
	if err != nil {
		return "", err
	}
	params.CustomerID = customerID

	record := &db_models.CheckoutSession{
		AccountID:          session.UserID,
		PlanID:             req.PlanID,
		NumberOfBeds:       beds,
		BoostEnabled:       req.BoostEnabled,
		PromoCode:          req.PromoCode,
		Status:             db_models.CheckoutPending,
		Provider:           c.providerName,
		ProviderCustomerID: customerID,
	}
	if err := c.checkoutRepo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("%w: create checkout record: %v", utils.ErrDatabaseError, err)
	}

	start := time.Now()
	sess, err := c.provider.CreateCheckoutSession(ctx, params)
	c.metrics.ProviderLatency.WithLabelValues("create_checkout_session").Observe(time.Since(start).Seconds())
	if err != nil {
		c.failCheckout(ctx, record.ID)
		return "", providerError(ctx, err)
	}
	if sess == nil || sess.URL == "" {
		c.failCheckout(ctx, record.ID)
		return "", utils.ErrMissingRedirectURL
	}

	meta, _ := json.Marshal(map[string]any{
		"plan_id":     req.PlanID,
		"beds":        beds,
		"boost":       req.BoostEnabled,
		"promotion":   params.PromotionCodeID,
		"success_url": params.SuccessURL,
	})
	if err := c.checkoutRepo.AttachProviderSession(ctx, record.ID, sess.ID, meta); err != nil {
		c.logger.Warn("failed to attach provider session to checkout record",
			zap.String("checkout_id", record.ID.String()), zap.Error(err))
	}

	c.metrics.RedirectSessions.WithLabelValues("checkout", "created").Inc()
	c.logger.Info("checkout session created",
		zap.String("user_id", session.UserID.String()),
		zap.String("plan_id", req.PlanID),
		zap.Int("beds", beds),
		zap.Bool("boost", req.BoostEnabled))
	return sess.URL, nil
}

func (c *checkoutService) failCheckout(ctx context.Context, id uuid.UUID) {
	c.metrics.RedirectSessions.WithLabelValues("checkout", "failed").Inc()
	if err := c.checkoutRepo.MarkFailed(context.WithoutCancel(ctx), id); err != nil {
		c.logger.Warn("failed to mark checkout record failed", zap.String("checkout_id", id.String()), zap.Error(err))
	}
}

func (c *checkoutService) CreatePortalSession(ctx context.Context, session utils.Session, returnURL string) (string, error) {
	if c.provider == nil {
		return "", utils.ErrBillingDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	customerID, err := c.billing.ResolveCustomerID(ctx, session)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		return "", utils.ErrNoBillingCustomer
	}

	start := time.Now()
	url, err := c.provider.CreatePortalSession(ctx, customerID, firstNonEmpty(returnURL, c.urls.PortalReturn))
	c.metrics.ProviderLatency.WithLabelValues("create_portal_session").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RedirectSessions.WithLabelValues("portal", "failed").Inc()
		return "", providerError(ctx, err)
	}
	if url == "" {
		c.metrics.RedirectSessions.WithLabelValues("portal", "failed").Inc()
		return "", utils.ErrMissingRedirectURL
	}

	c.metrics.RedirectSessions.WithLabelValues("portal", "created").Inc()
	return url, nil
}

func (c *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if c.provider == nil {
		return utils.ErrBillingDisabled
	}

	event, err := c.provider.ParseWebhook(payload, signature)
	if err != nil {
		c.metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return fmt.Errorf("%w: %v", utils.ErrInvalidWebhook, err)
	}

	switch event.Type {
	case billing.EventCheckoutCompleted:
		if err := c.checkoutRepo.MarkCompleted(ctx, event.CheckoutSessionID, event.CustomerID); err != nil {
			c.metrics.WebhookEvents.WithLabelValues(string(event.Type), "failed").Inc()
			return fmt.Errorf("%w: complete checkout: %v", utils.ErrDatabaseError, err)
		}
		if userID, err := uuid.Parse(event.UserID); err == nil && event.CustomerID != "" {
			if err := c.accountRepo.SetBillingCustomerID(ctx, userID, "", event.CustomerID); err != nil {
				c.logger.Warn("failed to store billing customer from checkout",
					zap.String("user_id", event.UserID), zap.Error(err))
			}
		}

	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		userID, ok := c.webhookUser(ctx, event)
		if !ok {
			c.logger.Warn("subscription event for unknown owner",
				zap.String("event_id", event.ID), zap.String("customer_id", event.CustomerID))
			c.metrics.WebhookEvents.WithLabelValues(string(event.Type), "ignored").Inc()
			return nil
		}
		c.billing.ApplyProviderSubscription(ctx, userID, event.Subscription, event.Created)

	default:
		c.metrics.WebhookEvents.WithLabelValues(string(event.Type), "ignored").Inc()
		return nil
	}

	c.metrics.WebhookEvents.WithLabelValues(string(event.Type), "processed").Inc()
	return nil
}

func (c *checkoutService) webhookUser(ctx context.Context, event *billing.Event) (uuid.UUID, bool) {
	if userID, err := uuid.Parse(event.UserID); err == nil {
		return userID, true
	}
	if event.CustomerID != "" {
		account, err := c.accountRepo.FindByBillingCustomerID(ctx, event.CustomerID)
		if err == nil && account != nil {
			return account.ID, true
		}
	}
	if event.Subscription != nil {
		return c.billing.OwnerOfSubscription(ctx, event.Subscription.ID)
	}
	return uuid.Nil, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
