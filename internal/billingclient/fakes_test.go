package billingclient

import (
	"context"
	"sync"

	"carenest/internal/models/request_models"
	"carenest/internal/models/response_models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	n.errors = append(n.errors, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) Info(message string) {
	n.mu.Lock()
	n.infos = append(n.infos, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

type recordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNavigator) Navigate(url string) {
	n.mu.Lock()
	n.urls = append(n.urls, url)
	n.mu.Unlock()
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

// statusResult is one scripted answer of fakeStatusAPI.
type statusResult struct {
	status response_models.SubscriptionStatusResponse
	err    error
	// gate, when set, holds the call until closed or the context ends.
	gate chan struct{}
}

type fakeStatusAPI struct {
	mu      sync.Mutex
	results []statusResult
	calls   int
	started chan struct{}
}

func (f *fakeStatusAPI) CheckSubscription(ctx context.Context) (response_models.SubscriptionStatusResponse, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	res := f.results[len(f.results)-1]
	if i < len(f.results) {
		res = f.results[i]
	}
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if res.gate != nil {
		select {
		case <-res.gate:
		case <-ctx.Done():
			return response_models.SubscriptionStatusResponse{}, ctx.Err()
		}
	}
	return res.status, res.err
}

type fakeRedirectAPI struct {
	mu          sync.Mutex
	checkoutURL string
	portalURL   string
	checkoutErr error
	portalErr   error
	gate        chan struct{}
	checkouts   []request_models.CreateCheckoutRequest
	portals     int
}

func (f *fakeRedirectAPI) CreateCheckout(ctx context.Context, req request_models.CreateCheckoutRequest) (string, error) {
	f.mu.Lock()
	f.checkouts = append(f.checkouts, req)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.checkoutURL, f.checkoutErr
}

func (f *fakeRedirectAPI) CreatePortalSession(ctx context.Context) (string, error) {
	f.mu.Lock()
	f.portals++
	f.mu.Unlock()
	return f.portalURL, f.portalErr
}

type fakePromoAPI struct {
	results []response_models.PromoResult
	err     error
	calls   int
}

func (f *fakePromoAPI) CheckPromoCode(ctx context.Context, code string) ([]response_models.PromoResult, error) {
	f.calls++
	return f.results, f.err
}

func signedIn() *StaticSession {
	return NewStaticSession(&Session{UserID: "u-1", Email: "owner@example.com", AuthToken: "tok"})
}
