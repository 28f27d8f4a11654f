// Package payment drives one payment attempt for one order, from session
// request to confirmation.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/metrics"
)

var (
	ErrIllegalTransition = errors.New("illegal checkout transition")
	ErrAttemptFailed     = errors.New("payment attempt failed, start a new one")
	ErrDisposed          = errors.New("checkout disposed")
)

const defaultConfirmTimeout = 30 * time.Second

type SessionAPI interface {
	CreateCheckoutSession(ctx context.Context, orderID string, mode domain.UIMode) (domain.PaymentSession, error)
	ConfirmPayment(ctx context.Context, sessionID string) error
}

// Widget is the embedded payment UI. onComplete is called by the widget
// when the customer finishes paying.
type Widget interface {
	Mount(ctx context.Context, session domain.EmbeddedSession, onComplete func(context.Context) error) error
	Unmount() error
}

type Navigator interface {
	Redirect(ctx context.Context, orderID, url string) error
	Confirmation(ctx context.Context, orderID string) error
}

type CartClearer interface {
	Clear(ctx context.Context) error
}

type Config struct {
	Mode           domain.UIMode
	ConfirmTimeout time.Duration
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Status is a point-in-time view of an attempt.
type Status struct {
	OrderID     string               `json:"orderId"`
	State       domain.CheckoutState `json:"state"`
	RedirectURL string               `json:"redirectUrl,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Orchestrator owns the state of a single attempt. All methods are safe for
// concurrent use.
type Orchestrator struct {
	orderID        string
	api            SessionAPI
	widget         Widget
	nav            Navigator
	cart           CartClearer
	mode           domain.UIMode
	confirmTimeout time.Duration
	log            *slog.Logger
	metrics        *metrics.Metrics

	sf singleflight.Group

	mu            sync.Mutex
	state         domain.CheckoutState
	session       domain.PaymentSession
	mounted       bool
	attemptFailed bool
	disposed      bool
	lastErr       error
	done          chan struct{}
	doneOnce      sync.Once
}

// New prepares an attempt for orderID. cart may be nil when nothing should
// be cleared on success.
func New(orderID string, sessions SessionAPI, widget Widget, nav Navigator, cart CartClearer, cfg Config) *Orchestrator {
	mode := cfg.Mode
	if mode == "" {
		mode = domain.UIModeEmbedded
	}
	timeout := cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}

	return &Orchestrator{
		orderID:        orderID,
		api:            sessions,
		widget:         widget,
		nav:            nav,
		cart:           cart,
		mode:           mode,
		confirmTimeout: timeout,
		log:            logger.OrDefault(cfg.Logger).With(slog.String(logger.OrderID, orderID)),
		metrics:        cfg.Metrics,
		state:          domain.CheckoutStateIdle,
		done:           make(chan struct{}),
	}
}

func (o *Orchestrator) OrderID() string { return o.orderID }

func (o *Orchestrator) State() domain.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Done is closed when the attempt reaches DONE or HOSTED_REDIRECT, or is
// disposed.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Err is the last failure of the attempt, if any.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Finished reports whether the attempt can make no further progress: it
// is done, redirected, disposed, or failed before a session was mounted.
func (o *Orchestrator) Finished() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disposed || o.attemptFailed ||
		o.state == domain.CheckoutStateDone || o.state == domain.CheckoutStateHostedRedirect
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{OrderID: o.orderID, State: o.state}
	if hosted, ok := o.session.(domain.HostedSession); ok {
		st.RedirectURL = hosted.URL
	}
	if o.lastErr != nil {
		st.Error = o.lastErr.Error()
	}
	return st
}

// Start requests a payment session and either redirects or mounts the
// widget. Concurrent calls share one request; calls after the request are
// no-ops. A failed attempt is never retried.
func (o *Orchestrator) Start(ctx context.Context) error {
	_, err, _ := o.sf.Do("start", func() (any, error) {
		return nil, o.start(ctx)
	})
	return err
}

func (o *Orchestrator) start(ctx context.Context) error {
	o.mu.Lock()
	switch {
	case o.disposed:
		o.mu.Unlock()
		return ErrDisposed
	case o.attemptFailed:
		o.mu.Unlock()
		return ErrAttemptFailed
	case o.state != domain.CheckoutStateIdle:
		o.mu.Unlock()
		return nil
	}
	if err := o.transition(ctx, domain.CheckoutStateRequestingSession); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	session, err := o.api.CreateCheckoutSession(ctx, o.orderID, o.mode)

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		o.log.DebugContext(ctx, "ignoring checkout session received after dispose")
		return ErrDisposed
	}
	if err != nil {
		o.failAttempt(ctx, err)
		o.mu.Unlock()
		return fmt.Errorf("create checkout session: %w", err)
	}
	o.session = session

	switch s := session.(type) {
	case domain.HostedSession:
		err := o.transition(ctx, domain.CheckoutStateHostedRedirect)
		o.mu.Unlock()
		if err != nil {
			return err
		}
		o.closeDone()
		if err := o.nav.Redirect(ctx, o.orderID, s.URL); err != nil {
			return fmt.Errorf("redirect to hosted checkout: %w", err)
		}
		return nil

	case domain.EmbeddedSession:
		if err := o.transition(ctx, domain.CheckoutStateEmbeddedMounting); err != nil {
			o.mu.Unlock()
			return err
		}
		o.mu.Unlock()
		return o.mount(ctx, s)

	default:
		o.failAttempt(ctx, fmt.Errorf("unknown session type %T", session))
		o.mu.Unlock()
		return ErrAttemptFailed
	}
}

func (o *Orchestrator) mount(ctx context.Context, s domain.EmbeddedSession) error {
	err := o.widget.Mount(ctx, s, o.Complete)

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		if err == nil {
			o.unmount(ctx)
		}
		return ErrDisposed
	}
	if err != nil {
		o.failAttempt(ctx, err)
		o.mu.Unlock()
		return fmt.Errorf("mount payment widget: %w", err)
	}
	o.mounted = true
	err = o.transition(ctx, domain.CheckoutStateEmbeddedMounted)
	o.mu.Unlock()
	return err
}

// Complete confirms the embedded session. The widget calls it when the
// customer has paid; it may also be called again by hand after a failed
// confirmation.
func (o *Orchestrator) Complete(ctx context.Context) error {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return ErrDisposed
	}
	embedded, ok := o.session.(domain.EmbeddedSession)
	if !ok || !o.mounted {
		from := o.state
		o.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, domain.CheckoutStateCompleting)
	}
	if err := o.transition(ctx, domain.CheckoutStateCompleting); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, o.confirmTimeout)
	err := o.api.ConfirmPayment(cctx, embedded.SessionID)
	cancel()

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		o.log.DebugContext(ctx, "ignoring confirmation received after dispose")
		return ErrDisposed
	}
	if err != nil {
		o.lastErr = err
		_ = o.transition(ctx, domain.CheckoutStateFailed)
		o.mu.Unlock()
		o.log.WarnContext(ctx, "payment confirmation failed", slog.String(logger.SessionID, embedded.SessionID), logger.Err(err))
		return fmt.Errorf("confirm payment: %w", err)
	}
	o.lastErr = nil
	o.mu.Unlock()

	if o.cart != nil {
		if err := o.cart.Clear(ctx); err != nil {
			o.log.WarnContext(ctx, "clearing cart after payment failed", logger.Err(err))
		}
	}
	navErr := o.nav.Confirmation(ctx, o.orderID)

	o.mu.Lock()
	err = o.transition(ctx, domain.CheckoutStateDone)
	o.mounted = false
	o.mu.Unlock()
	o.closeDone()
	o.unmount(ctx)

	if err != nil {
		return err
	}
	if navErr != nil {
		return fmt.Errorf("navigate to confirmation: %w", navErr)
	}
	o.log.InfoContext(ctx, "payment confirmed", slog.String(logger.SessionID, embedded.SessionID))
	return nil
}

// Dispose tears the attempt down. A mounted widget is unmounted; responses
// still in flight are ignored when they arrive.
func (o *Orchestrator) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	mounted := o.mounted
	o.mounted = false
	o.mu.Unlock()

	o.closeDone()
	if mounted {
		o.unmount(context.Background())
	}
}

// unmount is best effort.
func (o *Orchestrator) unmount(ctx context.Context) {
	if err := o.widget.Unmount(); err != nil {
		o.log.DebugContext(ctx, "unmounting payment widget failed", logger.Err(err))
	}
}

// failAttempt must be called with o.mu held.
func (o *Orchestrator) failAttempt(ctx context.Context, err error) {
	o.attemptFailed = true
	o.lastErr = err
	_ = o.transition(ctx, domain.CheckoutStateFailed)
	o.log.WarnContext(ctx, "payment attempt failed", logger.Err(err))
}

// transition must be called with o.mu held.
func (o *Orchestrator) transition(ctx context.Context, to domain.CheckoutState) error {
	if !domain.CanTransitionTo(o.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.state, to)
	}
	o.log.DebugContext(ctx, "checkout state changed", slog.String("from", o.state.String()), slog.String(logger.State, to.String()))
	o.state = to
	o.metrics.CheckoutTransition(to.String())
	return nil
}

func (o *Orchestrator) closeDone() {
	o.doneOnce.Do(func() { close(o.done) })
}
