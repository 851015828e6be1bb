package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carenest/internal/billing"
	"carenest/internal/metrics"
	"carenest/internal/models/db_models"
	mem "carenest/pkg/memcache"
	"carenest/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type billingFixture struct {
	svc      *BillingService
	provider *fakeProvider
	status   *fakeStatusRepo
	accounts *fakeAccountRepo
	session  utils.Session
}

func newBillingFixture(t *testing.T, cache mem.StatusCache) *billingFixture {
	t.Helper()
	if cache == nil {
		cache = mem.NewMemoryStatusCache()
	}
	f := &billingFixture{
		provider: newFakeProvider(),
		status:   newFakeStatusRepo(),
		accounts: newFakeAccountRepo(),
		session:  utils.Session{UserID: uuid.New(), Email: "owner@example.com"},
	}
	f.svc = NewBillingService(f.provider, f.status, f.accounts, cache, metrics.NewBillingMetrics(),
		BillingServiceConfig{ProviderTimeout: time.Second, CacheTTL: time.Minute}, testLogger)
	return f
}

func (f *billingFixture) subscribe(sub *billing.Subscription) {
	f.provider.customers[f.session.Email] = "cus_1"
	f.provider.subscriptions["cus_1"] = sub
}

func TestCheckSubscriptionWithoutCustomerIsNotAnError(t *testing.T) {
	f := newBillingFixture(t, nil)

	got, err := f.svc.CheckSubscription(context.Background(), f.session)
	require.NoError(t, err)
	assert.False(t, got.Subscribed)
	assert.Nil(t, got.Subscription)

	row, _ := f.status.FindByUserID(context.Background(), f.session.UserID)
	require.NotNil(t, row)
	assert.Equal(t, db_models.SubStateNone, row.Status)
	assert.Equal(t, 1, row.BedsCount)
}

func TestCheckSubscriptionActiveMirrorsRow(t *testing.T) {
	f := newBillingFixture(t, nil)
	end := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	f.subscribe(&billing.Subscription{
		ID: "sub_1", CustomerID: "cus_1", PlanID: PlanPro, Status: db_models.SubStateActive,
		NumberOfBeds: 4, HasBoost: true, CurrentPeriodEnd: end,
	})

	got, err := f.svc.CheckSubscription(context.Background(), f.session)
	require.NoError(t, err)
	require.True(t, got.Subscribed)
	require.NotNil(t, got.Subscription)
	assert.Equal(t, PlanPro, got.Subscription.PlanID)
	assert.Equal(t, 4, got.Subscription.NumberOfBeds)
	assert.True(t, got.Subscription.HasBoost)
	assert.Equal(t, end.UnixMilli(), got.Subscription.CurrentPeriodEndMs)

	row, _ := f.status.FindByUserID(context.Background(), f.session.UserID)
	require.NotNil(t, row)
	assert.Equal(t, "sub_1", row.SubscriptionID)
	assert.Equal(t, db_models.SubStateActive, row.Status)

	account, _ := f.accounts.FindById(context.Background(), f.session.UserID)
	require.NotNil(t, account)
	assert.Equal(t, "cus_1", account.BillingCustomerID)
}

func TestCheckSubscriptionCanceledRendersAsNotSubscribed(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.subscribe(&billing.Subscription{ID: "sub_1", PlanID: PlanBasic, Status: db_models.SubStateCanceled, NumberOfBeds: 2})

	got, err := f.svc.CheckSubscription(context.Background(), f.session)
	require.NoError(t, err)
	assert.False(t, got.Subscribed)

	row, _ := f.status.FindByUserID(context.Background(), f.session.UserID)
	require.NotNil(t, row)
	assert.Equal(t, db_models.SubStateCanceled, row.Status)
}

func TestCheckSubscriptionIsIdempotent(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.subscribe(&billing.Subscription{ID: "sub_1", PlanID: PlanElite, Status: db_models.SubStateActive, NumberOfBeds: 2})

	first, err := f.svc.CheckSubscription(context.Background(), f.session)
	require.NoError(t, err)
	second, err := f.svc.CheckSubscription(context.Background(), f.session)
	require.NoError(t, err)

	assert.Equal(t, first.Subscribed, second.Subscribed)
	assert.Equal(t, first.Subscription, second.Subscription)
}

func TestCheckSubscriptionProviderFailureSurfaces(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.provider.customers[f.session.Email] = "cus_1"
	f.provider.subscriptionErr = errors.New("boom")

	_, err := f.svc.CheckSubscription(context.Background(), f.session)
	assert.ErrorIs(t, err, utils.ErrProviderError)
}

func TestCheckSubscriptionProviderTimeout(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.svc.cfg.ProviderTimeout = 20 * time.Millisecond
	f.provider.customers[f.session.Email] = "cus_1"
	f.provider.delay = time.Second

	_, err := f.svc.CheckSubscription(context.Background(), f.session)
	assert.ErrorIs(t, err, utils.ErrProviderTimeout)
}

func TestCheckSubscriptionUpsertFailureIsBestEffort(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.subscribe(&billing.Subscription{ID: "sub_1", PlanID: PlanPro, Status: db_models.SubStateActive, NumberOfBeds: 1})
	f.status.err = errors.New("db down")

	got, err := f.svc.CheckSubscription(context.Background(), f.session)
	require.NoError(t, err)
	assert.True(t, got.Subscribed)
}

func TestCheckSubscriptionSharesConcurrentProviderCalls(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.subscribe(&billing.Subscription{ID: "sub_1", PlanID: PlanPro, Status: db_models.SubStateActive, NumberOfBeds: 1})
	f.provider.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CheckSubscription(context.Background(), f.session)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, int(f.provider.subscriptionCalls), 5)
}

func TestCheckSubscriptionDisabledWithoutProvider(t *testing.T) {
	svc := NewBillingService(nil, newFakeStatusRepo(), newFakeAccountRepo(), mem.NewMemoryStatusCache(),
		metrics.NewBillingMetrics(), BillingServiceConfig{}, testLogger)
	_, err := svc.CheckSubscription(context.Background(), utils.Session{UserID: uuid.New()})
	assert.ErrorIs(t, err, utils.ErrBillingDisabled)
}

func TestApplyProviderSubscriptionKeepsNewestRow(t *testing.T) {
	f := newBillingFixture(t, nil)
	ctx := context.Background()
	newer := time.UnixMilli(2_000_000)
	older := time.UnixMilli(1_000_000)

	f.svc.ApplyProviderSubscription(ctx, f.session.UserID,
		&billing.Subscription{ID: "sub_1", PlanID: PlanElite, Status: db_models.SubStateActive, NumberOfBeds: 8}, newer)
	f.svc.ApplyProviderSubscription(ctx, f.session.UserID,
		&billing.Subscription{ID: "sub_1", PlanID: PlanBasic, Status: db_models.SubStateActive, NumberOfBeds: 2}, older)

	row, _ := f.status.FindByUserID(ctx, f.session.UserID)
	require.NotNil(t, row)
	assert.Equal(t, PlanElite, row.PlanID)
	assert.Equal(t, 8, row.BedsCount)

	cached, err := f.svc.CachedStatus(ctx, f.session.UserID)
	require.NoError(t, err)
	require.NotNil(t, cached.Subscription)
	assert.Equal(t, PlanElite, cached.Subscription.PlanID)
}

func TestCachedStatusThroughRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newBillingFixture(t, mem.NewRedisStatusCache(client, ""))
	ctx := context.Background()

	f.subscribe(&billing.Subscription{ID: "sub_1", PlanID: PlanPro, Status: db_models.SubStateActive, NumberOfBeds: 3})
	_, err := f.svc.CheckSubscription(ctx, f.session)
	require.NoError(t, err)
	assert.True(t, srv.Exists("billing:status:"+f.session.UserID.String()))

	// The cache answers even when the row disappears.
	delete(f.status.rows, f.session.UserID)
	got, err := f.svc.CachedStatus(ctx, f.session.UserID)
	require.NoError(t, err)
	assert.True(t, got.Subscribed)
}

func TestCachedStatusWithoutRow(t *testing.T) {
	f := newBillingFixture(t, nil)
	got, err := f.svc.CachedStatus(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, got.Subscribed)
}
