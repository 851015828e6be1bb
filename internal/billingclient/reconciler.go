package billingclient

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"carenest/internal/models/response_models"
	"carenest/pkg/utils"

	"go.uber.org/zap"
)

type State int

const (
	StateUnknown State = iota
	StateNoSubscription
	StateActive
	StateError
)

func (s State) String() string {
	switch s {
	case StateNoSubscription:
		return "no_subscription"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var ErrClosed = errors.New("billingclient: reconciler closed")

// Snapshot is the last authoritative view of the owner's subscription.
type Snapshot struct {
	SubscriptionID   string
	PlanID           string
	Status           string
	NumberOfBeds     int
	HasBoost         bool
	CurrentPeriodEnd time.Time
}

func defaultSnapshot() Snapshot {
	return Snapshot{NumberOfBeds: 1}
}

// Reconciler replaces local subscription state with the billing service's
// view. It never polls: state changes only on Start, Retry or selection edits.
type Reconciler struct {
	api       StatusAPI
	sessions  SessionProvider
	notifier  Notifier
	logger    *zap.Logger
	planNames map[string]string
	loginNav  Navigator
	loginCfg  RedirectConfig

	mu          sync.Mutex
	state       State
	snapshot    Snapshot
	hasSnapshot bool
	selection   Selection
	lastErr     error
	generation  uint64
	edits       uint64
	cancel      context.CancelFunc
	closed      bool
	listeners   []func(State)
}

type ReconcilerOption func(*Reconciler)

func WithPlanNames(plans []response_models.PlanResponse) ReconcilerOption {
	return func(r *Reconciler) {
		for _, p := range plans {
			r.planNames[p.ID] = p.Name
		}
	}
}

// WithLoginRedirect sends the owner to the login page when the status call is
// rejected as unauthenticated.
func WithLoginRedirect(nav Navigator, cfg RedirectConfig) ReconcilerOption {
	return func(r *Reconciler) {
		r.loginNav = nav
		r.loginCfg = cfg
	}
}

func WithLogger(logger *zap.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = logger }
}

func NewReconciler(api StatusAPI, sessions SessionProvider, notifier Notifier, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		api:      api,
		sessions: sessions,
		notifier: notifier,
		logger:   zap.NewNop(),
		planNames: map[string]string{
			"basic": "Basic",
			"pro":   "Pro",
			"elite": "Elite",
		},
		state:     StateUnknown,
		snapshot:  defaultSnapshot(),
		selection: DefaultSelection(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers fn to run after every state entry.
func (r *Reconciler) OnChange(fn func(State)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Start enters Unknown and fetches the status. Without a session nothing is
// fetched and ErrLoginRequired is returned.
func (r *Reconciler) Start(ctx context.Context) (State, error) {
	return r.reconcile(ctx)
}

// Retry is the explicit user-triggered refresh; it re-enters Unknown.
func (r *Reconciler) Retry(ctx context.Context) (State, error) {
	return r.reconcile(ctx)
}

// Close cancels the in-flight fetch; its result, if any, is dropped.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Reconciler) reconcile(ctx context.Context) (State, error) {
	if _, ok := r.sessions.CurrentUser(); !ok {
		return r.State(), ErrLoginRequired
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return r.state, ErrClosed
	}
	if r.cancel != nil {
		r.cancel()
	}
	callCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.generation++
	gen := r.generation
	editsAtStart := r.edits
	r.state = StateUnknown
	listeners := r.snapshotListeners()
	r.mu.Unlock()
	notify(listeners, StateUnknown)

	status, err := r.api.CheckSubscription(callCtx)
	cancel()

	r.mu.Lock()
	if gen != r.generation {
		state := r.state
		r.mu.Unlock()
		if r.isClosed() {
			return state, ErrClosed
		}
		return state, context.Canceled
	}
	r.cancel = nil

	dirty := r.edits != editsAtStart
	switch {
	case err != nil:
		r.state = StateError
		r.lastErr = err
		if !r.hasSnapshot {
			r.snapshot = defaultSnapshot()
		}
	case status.Subscribed && status.Subscription != nil:
		r.state = StateActive
		r.lastErr = nil
		r.snapshot = snapshotFrom(status.Subscription)
		r.hasSnapshot = true
		if !dirty {
			r.selection = Selection{
				PlanID:       r.snapshot.PlanID,
				NumberOfBeds: r.snapshot.NumberOfBeds,
				BoostEnabled: r.snapshot.HasBoost,
			}
		}
	default:
		r.state = StateNoSubscription
		r.lastErr = nil
		r.snapshot = defaultSnapshot()
		r.hasSnapshot = true
		if !dirty {
			r.selection = DefaultSelection()
		}
	}
	state := r.state
	listeners = r.snapshotListeners()
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("subscription status check failed", zap.Error(err))
		switch {
		case errors.Is(err, ErrUnauthenticated) && r.loginNav != nil:
			r.loginNav.Navigate(loginURL(r.loginCfg, nil))
		case errors.Is(err, ErrUnauthenticated):
			r.notifier.Error("Your session has expired, please sign in again")
		default:
			r.notifier.Error("Failed to load subscription status")
		}
	}
	notify(listeners, state)
	return state, err
}

func (r *Reconciler) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Reconciler) snapshotListeners() []func(State) {
	return slices.Clone(r.listeners)
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

func (r *Reconciler) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection
}

// EditSelection applies an owner edit. Edits made while a fetch is in flight
// survive that fetch's reconciliation.
func (r *Reconciler) EditSelection(edit func(*Selection)) Selection {
	r.mu.Lock()
	edit(&r.selection)
	r.edits++
	sel := r.selection
	r.mu.Unlock()
	return sel
}

// View is what a subscription page renders.
type View struct {
	State           State
	PlanName        string
	StatusLabel     string
	NextBillingDate string
	NumberOfBeds    int
	HasBoost        bool
	CanSubscribe    bool
	CanManage       bool
	CanRetry        bool
}

func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		State:        r.state,
		NumberOfBeds: r.snapshot.NumberOfBeds,
		HasBoost:     r.snapshot.HasBoost,
	}
	switch r.state {
	case StateActive:
		v.PlanName = r.planName(r.snapshot.PlanID)
		v.StatusLabel = statusLabel(r.snapshot.Status)
		if !r.snapshot.CurrentPeriodEnd.IsZero() {
			v.NextBillingDate = utils.FormatBillingDate(r.snapshot.CurrentPeriodEnd)
		}
		v.CanManage = true
	case StateNoSubscription:
		v.StatusLabel = "No Active Subscription"
		v.CanSubscribe = true
	case StateError:
		v.StatusLabel = "Unable to load subscription"
		v.CanRetry = true
	default:
		v.StatusLabel = "Loading"
	}
	return v
}

func (r *Reconciler) planName(id string) string {
	if name, ok := r.planNames[id]; ok {
		return name
	}
	return id
}

func statusLabel(status string) string {
	switch strings.ToLower(status) {
	case "active":
		return "Active"
	case "canceled":
		return "Canceled"
	case "expired":
		return "Expired"
	default:
		return "No Active Subscription"
	}
}

func snapshotFrom(d *response_models.SubscriptionDetail) Snapshot {
	s := Snapshot{
		SubscriptionID: d.SubscriptionID,
		PlanID:         d.PlanID,
		Status:         d.Status,
		NumberOfBeds:   d.NumberOfBeds,
		HasBoost:       d.HasBoost,
	}
	if s.NumberOfBeds < 1 {
		s.NumberOfBeds = 1
	}
	if d.CurrentPeriodEndMs > 0 {
		s.CurrentPeriodEnd = utils.FromUnixMillis(d.CurrentPeriodEndMs)
	}
	return s
}
