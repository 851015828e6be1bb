package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carenest/internal/billing"
	"carenest/internal/metrics"
	"carenest/internal/models/db_models"
	"carenest/internal/models/response_models"
	"carenest/internal/repositories"
	mem "carenest/pkg/memcache"
	"carenest/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type BillingServiceInterface interface {
	// CheckSubscription asks the provider for the authoritative subscription and
	// mirrors it into the status row. "No customer" is a normal result, not an error.
	CheckSubscription(ctx context.Context, session utils.Session) (response_models.SubscriptionStatusResponse, error)
	// CachedStatus reads the denormalized row (through the cache) without calling the provider.
	CachedStatus(ctx context.Context, userID uuid.UUID) (response_models.SubscriptionStatusResponse, error)
	// ResolveCustomerID returns "" when the account has no billing customer yet.
	ResolveCustomerID(ctx context.Context, session utils.Session) (string, error)
	// ApplyProviderSubscription records a pushed provider change observed at observedAt.
	ApplyProviderSubscription(ctx context.Context, userID uuid.UUID, sub *billing.Subscription, observedAt time.Time)
	// OwnerOfSubscription finds the user whose status row carries subscriptionID.
	OwnerOfSubscription(ctx context.Context, subscriptionID string) (uuid.UUID, bool)
}

type BillingServiceConfig struct {
	ProviderTimeout time.Duration
	CacheTTL        time.Duration
}

type BillingService struct {
	provider   billing.Provider
	statusRepo repositories.SubscriptionStatusRepository
	account    repositories.AccountRepository
	cache      mem.StatusCache
	metrics    *metrics.BillingMetrics
	cfg        BillingServiceConfig
	logger     *zap.Logger
	now        func() time.Time

	sf singleflight.Group
}

func NewBillingService(
	provider billing.Provider,
	statusRepo repositories.SubscriptionStatusRepository,
	accountRepo repositories.AccountRepository,
	cache mem.StatusCache,
	m *metrics.BillingMetrics,
	cfg BillingServiceConfig,
	logger *zap.Logger,
) *BillingService {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 20 * time.Second
	}
	return &BillingService{
		provider:   provider,
		statusRepo: statusRepo,
		account:    accountRepo,
		cache:      cache,
		metrics:    m,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (b *BillingService) CheckSubscription(ctx context.Context, session utils.Session) (response_models.SubscriptionStatusResponse, error) {
	if b.provider == nil {
		return response_models.SubscriptionStatusResponse{}, utils.ErrBillingDisabled
	}

	// Concurrent checks for one user share a single provider round-trip. The
	// shared call is detached from any one caller's cancellation.
	key := "status:" + session.UserID.String()
	ch := b.sf.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.ProviderTimeout)
		defer cancel()
		return b.checkSubscription(callCtx, session)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			b.metrics.StatusChecks.WithLabelValues("error").Inc()
			return response_models.SubscriptionStatusResponse{}, res.Err
		}
		status := res.Val.(response_models.SubscriptionStatusResponse)
		if status.Subscribed {
			b.metrics.StatusChecks.WithLabelValues("active").Inc()
		} else {
			b.metrics.StatusChecks.WithLabelValues("none").Inc()
		}
		return status, nil
	case <-ctx.Done():
		b.metrics.StatusChecks.WithLabelValues("error").Inc()
		return response_models.SubscriptionStatusResponse{}, ctx.Err()
	}
}

func (b *BillingService) checkSubscription(ctx context.Context, session utils.Session) (response_models.SubscriptionStatusResponse, error) {
	observedAt := b.now()

	customerID, err := b.ResolveCustomerID(ctx, session)
	if err != nil {
		return response_models.SubscriptionStatusResponse{}, err
	}
	if customerID == "" {
		b.recordStatus(ctx, noneRow(session.UserID, observedAt))
		return response_models.SubscriptionStatusResponse{Subscribed: false, UpdatedAtMs: observedAt.UnixMilli()}, nil
	}

	start := time.Now()
	sub, err := b.provider.CurrentSubscription(ctx, customerID)
	b.metrics.ProviderLatency.WithLabelValues("current_subscription").Observe(time.Since(start).Seconds())
	if err != nil {
		return response_models.SubscriptionStatusResponse{}, providerError(ctx, err)
	}
	if sub == nil {
		b.recordStatus(ctx, noneRow(session.UserID, observedAt))
		return response_models.SubscriptionStatusResponse{Subscribed: false, UpdatedAtMs: observedAt.UnixMilli()}, nil
	}

	row := rowFromSubscription(session.UserID, sub, observedAt)
	b.recordStatus(ctx, row)
	return statusFromRow(row), nil
}

func (b *BillingService) ResolveCustomerID(ctx context.Context, session utils.Session) (string, error) {
	account, err := b.account.FindById(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: find account: %v", utils.ErrDatabaseError, err)
	}
	if account != nil && account.BillingCustomerID != "" {
		return account.BillingCustomerID, nil
	}
	if b.provider == nil {
		return "", utils.ErrBillingDisabled
	}

	start := time.Now()
	customerID, err := b.provider.FindCustomer(ctx, session.Email)
	b.metrics.ProviderLatency.WithLabelValues("find_customer").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", providerError(ctx, err)
	}
	if customerID != "" {
		if err := b.account.SetBillingCustomerID(ctx, session.UserID, session.Email, customerID); err != nil {
			b.logger.Warn("failed to remember billing customer", zap.String("user_id", session.UserID.String()), zap.Error(err))
		}
	}
	return customerID, nil
}

func (b *BillingService) CachedStatus(ctx context.Context, userID uuid.UUID) (response_models.SubscriptionStatusResponse, error) {
	if raw, ok, err := b.cache.Get(ctx, userID.String()); err != nil {
		b.logger.Warn("status cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	} else if ok {
		var cached response_models.SubscriptionStatusResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	row, err := b.statusRepo.FindByUserID(ctx, userID)
	if err != nil {
		return response_models.SubscriptionStatusResponse{}, fmt.Errorf("%w: find status row: %v", utils.ErrDatabaseError, err)
	}
	if row == nil {
		return response_models.SubscriptionStatusResponse{Subscribed: false}, nil
	}

	status := statusFromRow(*row)
	b.storeCache(ctx, userID, status)
	return status, nil
}

func (b *BillingService) ApplyProviderSubscription(ctx context.Context, userID uuid.UUID, sub *billing.Subscription, observedAt time.Time) {
	if sub == nil {
		return
	}
	b.recordStatus(ctx, rowFromSubscription(userID, sub, observedAt))
}

func (b *BillingService) OwnerOfSubscription(ctx context.Context, subscriptionID string) (uuid.UUID, bool) {
	if subscriptionID == "" {
		return uuid.Nil, false
	}
	row, err := b.statusRepo.FindBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		b.logger.Warn("status row lookup by subscription failed", zap.String("subscription_id", subscriptionID), zap.Error(err))
		return uuid.Nil, false
	}
	if row == nil {
		return uuid.Nil, false
	}
	return row.UserID, true
}

// recordStatus is best-effort: failures are logged and counted, never returned.
func (b *BillingService) recordStatus(ctx context.Context, row db_models.SubscriptionStatus) {
	applied, err := b.statusRepo.Upsert(ctx, &row)
	switch {
	case err != nil:
		b.metrics.StatusUpserts.WithLabelValues("failed").Inc()
		b.logger.Error("status row upsert failed",
			zap.String("user_id", row.UserID.String()),
			zap.String("subscription_id", row.SubscriptionID),
			zap.Error(err))
		return
	case !applied:
		b.metrics.StatusUpserts.WithLabelValues("stale").Inc()
		b.logger.Info("status row newer than update, skipped",
			zap.String("user_id", row.UserID.String()),
			zap.Int64("updated_at", row.UpdatedAt))
		if err := b.cache.Delete(ctx, row.UserID.String()); err != nil {
			b.logger.Warn("status cache invalidation failed", zap.Error(err))
		}
		return
	}

	b.metrics.StatusUpserts.WithLabelValues("applied").Inc()
	b.storeCache(ctx, row.UserID, statusFromRow(row))
}

func (b *BillingService) storeCache(ctx context.Context, userID uuid.UUID, status response_models.SubscriptionStatusResponse) {
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := b.cache.Set(ctx, userID.String(), raw, b.cfg.CacheTTL); err != nil {
		b.logger.Warn("status cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func noneRow(userID uuid.UUID, observedAt time.Time) db_models.SubscriptionStatus {
	return db_models.SubscriptionStatus{
		UserID:    userID,
		Status:    db_models.SubStateNone,
		BedsCount: 1,
		UpdatedAt: observedAt.UnixMilli(),
	}
}

func rowFromSubscription(userID uuid.UUID, sub *billing.Subscription, observedAt time.Time) db_models.SubscriptionStatus {
	row := db_models.SubscriptionStatus{
		UserID:         userID,
		SubscriptionID: sub.ID,
		PlanID:         sub.PlanID,
		Status:         sub.Status,
		BedsCount:      sub.NumberOfBeds,
		HasBoost:       sub.HasBoost,
		UpdatedAt:      observedAt.UnixMilli(),
	}
	if row.BedsCount < 1 {
		row.BedsCount = 1
	}
	if row.Status == "" {
		row.Status = db_models.SubStateNone
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		ms := sub.CurrentPeriodEnd.UnixMilli()
		row.CurrentPeriodEnd = &ms
	}
	return row
}

// statusFromRow reports subscribed only for active rows; ended subscriptions
// render as "no active subscription".
func statusFromRow(row db_models.SubscriptionStatus) response_models.SubscriptionStatusResponse {
	if !row.IsActive() {
		return response_models.SubscriptionStatusResponse{Subscribed: false, UpdatedAtMs: row.UpdatedAt}
	}
	detail := &response_models.SubscriptionDetail{
		SubscriptionID: row.SubscriptionID,
		PlanID:         row.PlanID,
		Status:         string(row.Status),
		NumberOfBeds:   row.BedsCount,
		HasBoost:       row.HasBoost,
	}
	if row.CurrentPeriodEnd != nil {
		detail.CurrentPeriodEndMs = *row.CurrentPeriodEnd
	}
	return response_models.SubscriptionStatusResponse{
		Subscribed:   true,
		Subscription: detail,
		UpdatedAtMs:  row.UpdatedAt,
	}
}
