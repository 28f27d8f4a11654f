package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/checkoutui"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/events"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/metrics"
	"github.com/DRIVN-COOK/front-office/internal/payment"
)

type CheckoutConfig struct {
	Mode           domain.UIMode
	ConfirmTimeout time.Duration
	Timeout        time.Duration
	// Retention is how long a finished attempt stays readable before a
	// later checkout drops it.
	Retention      time.Duration
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// CheckoutHandler runs "pay now": it submits the cart and keeps one payment
// attempt per order until the attempt is disposed.
type CheckoutHandler struct {
	submitter Submitter
	sessions  payment.SessionAPI
	registry  *checkoutui.Registry
	store     *cart.Store
	pending   *events.PendingOrders
	cfg       CheckoutConfig
	log       *slog.Logger

	now func() time.Time

	mu       sync.Mutex
	attempts map[string]*payment.Orchestrator
	finished map[string]time.Time
}

func NewCheckoutHandler(submitter Submitter, sessions payment.SessionAPI, registry *checkoutui.Registry, store *cart.Store, pending *events.PendingOrders, cfg CheckoutConfig) *CheckoutHandler {
	if cfg.Mode == "" {
		cfg.Mode = domain.UIModeEmbedded
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 5 * time.Minute
	}
	if pending == nil {
		pending = events.NewPendingOrders()
	}
	return &CheckoutHandler{
		submitter: submitter,
		sessions:  sessions,
		registry:  registry,
		store:     store,
		pending:   pending,
		cfg:       cfg,
		log:       logger.OrDefault(cfg.Logger),
		now:       time.Now,
		attempts:  make(map[string]*payment.Orchestrator),
		finished:  make(map[string]time.Time),
	}
}

type StartCheckoutRequestDTO struct {
	UIMode domain.UIMode `json:"uiMode"`
}

type CheckoutResponseDTO struct {
	payment.Status
	PayURL string `json:"payUrl,omitempty"`
}

func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
	defer cancel()

	var req StartCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	mode := req.UIMode
	switch mode {
	case "":
		mode = h.cfg.Mode
	case domain.UIModeEmbedded, domain.UIModeHosted:
	default:
		respondError(w, http.StatusBadRequest, "invalid_ui_mode", "uiMode must be embedded or hosted")
		return
	}

	orderID, err := h.submitter.Submit(ctx, h.store.Lines())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	attempt := payment.New(orderID, h.sessions, h.registry.Widget(orderID), &gatewayNavigator{pending: h.pending, log: h.log}, h.store, payment.Config{
		Mode:           mode,
		ConfirmTimeout: h.cfg.ConfirmTimeout,
		Logger:         h.log,
		Metrics:        h.cfg.Metrics,
	})
	h.mu.Lock()
	h.prune()
	h.attempts[orderID] = attempt
	delete(h.finished, orderID)
	h.mu.Unlock()

	if err := attempt.Start(ctx); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.response(attempt))
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	attempt, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.response(attempt))
}

// Confirm retries the confirmation of an embedded payment, typically after
// a failed one.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	attempt, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
	defer cancel()

	if err := attempt.Complete(ctx); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, h.response(attempt))
}

func (h *CheckoutHandler) Dispose(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	h.mu.Lock()
	attempt, ok := h.attempts[orderID]
	delete(h.attempts, orderID)
	delete(h.finished, orderID)
	h.mu.Unlock()

	if ok {
		attempt.Dispose()
	}
	w.WriteHeader(http.StatusNoContent)
}

// DisposeAll tears down every attempt still held.
func (h *CheckoutHandler) DisposeAll() {
	h.mu.Lock()
	attempts := h.attempts
	h.attempts = make(map[string]*payment.Orchestrator)
	h.finished = make(map[string]time.Time)
	h.mu.Unlock()

	for _, a := range attempts {
		a.Dispose()
	}
}

// prune drops attempts that have been finished for longer than the
// retention. An attempt is first seen finished on one pass and dropped on a
// later one. h.mu must be held.
func (h *CheckoutHandler) prune() {
	now := h.now()
	for orderID, attempt := range h.attempts {
		if !attempt.Finished() {
			continue
		}
		since, seen := h.finished[orderID]
		if !seen {
			h.finished[orderID] = now
			continue
		}
		if now.Sub(since) >= h.cfg.Retention {
			attempt.Dispose()
			delete(h.attempts, orderID)
			delete(h.finished, orderID)
		}
	}
}

func (h *CheckoutHandler) lookup(w http.ResponseWriter, r *http.Request) (*payment.Orchestrator, bool) {
	orderID := chi.URLParam(r, "order_id")

	h.mu.Lock()
	attempt, ok := h.attempts[orderID]
	h.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "checkout_not_found", "no checkout in progress for order "+orderID)
		return nil, false
	}
	return attempt, true
}

func (h *CheckoutHandler) response(attempt *payment.Orchestrator) CheckoutResponseDTO {
	resp := CheckoutResponseDTO{Status: attempt.Status()}
	if h.registry.Mounted(attempt.OrderID()) {
		resp.PayURL = checkoutui.PayPath(attempt.OrderID())
	}
	return resp
}

// gatewayNavigator leaves navigation to the caller, which gets the redirect
// URL in the response. Hosted orders are remembered so that their payment
// event can clear the cart.
type gatewayNavigator struct {
	pending *events.PendingOrders
	log     *slog.Logger
}

func (n *gatewayNavigator) Redirect(ctx context.Context, orderID, url string) error {
	n.pending.Add(orderID)
	n.log.InfoContext(ctx, "customer sent to hosted checkout", slog.String(logger.OrderID, orderID), slog.String("url", url))
	return nil
}

func (n *gatewayNavigator) Confirmation(ctx context.Context, orderID string) error {
	n.log.InfoContext(ctx, "order confirmed", slog.String(logger.OrderID, orderID))
	return nil
}
