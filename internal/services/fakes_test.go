package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"carenest/internal/billing"
	"carenest/internal/models/db_models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var testLogger = zap.NewNop()

type fakeProvider struct {
	mu sync.Mutex

	customers     map[string]string
	subscriptions map[string]*billing.Subscription
	promotions    map[string]*billing.PromotionCode
	checkoutURL   string
	portalURL     string
	event         *billing.Event

	subscriptionErr error
	checkoutErr     error
	portalErr       error
	webhookErr      error
	delay           time.Duration

	subscriptionCalls int32
	lastCheckout      billing.CheckoutParams
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers:     map[string]string{},
		subscriptions: map[string]*billing.Subscription{},
		promotions:    map[string]*billing.PromotionCode{},
		checkoutURL:   "https://checkout.example.com/cs_1",
		portalURL:     "https://billing.example.com/p_1",
	}
}

func (f *fakeProvider) FindCustomer(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers[email], nil
}

func (f *fakeProvider) CurrentSubscription(ctx context.Context, customerID string) (*billing.Subscription, error) {
	atomic.AddInt32(&f.subscriptionCalls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.subscriptionErr != nil {
		return nil, f.subscriptionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscriptions[customerID], nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	f.mu.Lock()
	f.lastCheckout = params
	f.mu.Unlock()
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &billing.CheckoutSession{ID: "cs_1", URL: f.checkoutURL}, nil
}

func (f *fakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if f.portalErr != nil {
		return "", f.portalErr
	}
	return f.portalURL, nil
}

func (f *fakeProvider) LookupPromotionCode(ctx context.Context, code string) (*billing.PromotionCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promotions[strings.ToUpper(code)], nil
}

func (f *fakeProvider) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	return f.event, nil
}

type fakeStatusRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]db_models.SubscriptionStatus
	err  error
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{rows: map[uuid.UUID]db_models.SubscriptionStatus{}}
}

func (f *fakeStatusRepo) Upsert(ctx context.Context, row *db_models.SubscriptionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if cur, ok := f.rows[row.UserID]; ok && cur.UpdatedAt > row.UpdatedAt {
		return false, nil
	}
	f.rows[row.UserID] = *row
	return true, nil
}

func (f *fakeStatusRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*db_models.SubscriptionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeStatusRepo) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*db_models.SubscriptionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.SubscriptionID == subscriptionID {
			r := row
			return &r, nil
		}
	}
	return nil, nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*db_models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uuid.UUID]*db_models.Account{}}
}

func (f *fakeAccountRepo) FindById(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id], nil
}

func (f *fakeAccountRepo) FindByBillingCustomerID(ctx context.Context, customerID string) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.BillingCustomerID == customerID {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) SetBillingCustomerID(ctx context.Context, id uuid.UUID, email, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		a = &db_models.Account{Email: email}
		a.ID = id
		f.accounts[id] = a
	}
	a.BillingCustomerID = customerID
	return nil
}

type fakeCheckoutRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*db_models.CheckoutSession
	createErr error
}

func newFakeCheckoutRepo() *fakeCheckoutRepo {
	return &fakeCheckoutRepo{sessions: map[uuid.UUID]*db_models.CheckoutSession{}}
}

func (f *fakeCheckoutRepo) Create(ctx context.Context, session *db_models.CheckoutSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeCheckoutRepo) AttachProviderSession(ctx context.Context, id uuid.UUID, providerSessionID string, metadata datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.ProviderSessionID = providerSessionID
		s.Metadata = metadata
	}
	return nil
}

func (f *fakeCheckoutRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.Status = db_models.CheckoutFailed
	}
	return nil
}

func (f *fakeCheckoutRepo) MarkCompleted(ctx context.Context, providerSessionID, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ProviderSessionID == providerSessionID && s.Status != db_models.CheckoutCompleted {
			s.Status = db_models.CheckoutCompleted
			s.ProviderCustomerID = customerID
		}
	}
	return nil
}

func (f *fakeCheckoutRepo) only() *db_models.CheckoutSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		return s
	}
	return nil
}

type fakePromoRepo struct {
	codes map[string]*db_models.PromoCode
	err   error
}

func (f *fakePromoRepo) FindByCode(ctx context.Context, code string) (*db_models.PromoCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.codes[strings.ToUpper(code)], nil
}

type fakePlanRepo struct {
	plans []db_models.Plan
	err   error
}

func (f *fakePlanRepo) GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error) {
	for i := range f.plans {
		if f.plans[i].Code == code {
			return &f.plans[i], nil
		}
	}
	return nil, f.err
}

func (f *fakePlanRepo) GetAllPlans(ctx context.Context) ([]db_models.Plan, error) {
	return f.plans, f.err
}
