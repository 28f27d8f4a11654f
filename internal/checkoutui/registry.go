// Package checkoutui serves the mount points of the embedded payment
// widget. Each mounted order gets a page at /pay/{order_id} that runs the
// provider's embedded checkout and reports completion back.
package checkoutui

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
)

var (
	ErrAlreadyMounted = errors.New("payment widget already mounted")
	ErrNotMounted     = errors.New("payment widget not mounted")
)

type mountPoint struct {
	session    domain.EmbeddedSession
	onComplete func(context.Context) error
	fired      atomic.Bool
}

// Registry holds the live mount points, one per order.
type Registry struct {
	publishableKey string
	log            *slog.Logger

	mu     sync.Mutex
	mounts map[string]*mountPoint
}

func NewRegistry(publishableKey string, log *slog.Logger) *Registry {
	return &Registry{
		publishableKey: publishableKey,
		log:            logger.OrDefault(log),
		mounts:         make(map[string]*mountPoint),
	}
}

// Widget returns the payment widget bound to the mount point of orderID.
func (r *Registry) Widget(orderID string) *Widget {
	return &Widget{registry: r, orderID: orderID}
}

// PayPath is where the customer completes payment for orderID.
func PayPath(orderID string) string {
	return "/pay/" + orderID
}

// Register adds the mount point routes to router.
func (r *Registry) Register(router chi.Router) {
	router.Route("/pay/{order_id}", func(router chi.Router) {
		router.Get("/", r.page)
		router.Get("/session", r.session)
		router.Post("/complete", r.complete)
	})
}

func (r *Registry) Mounted(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mounts[orderID]
	return ok
}

func (r *Registry) mount(orderID string, mp *mountPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mounts[orderID]; ok {
		return ErrAlreadyMounted
	}
	r.mounts[orderID] = mp
	return nil
}

func (r *Registry) unmount(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mounts[orderID]; !ok {
		return ErrNotMounted
	}
	delete(r.mounts, orderID)
	return nil
}

func (r *Registry) lookup(req *http.Request) (string, *mountPoint) {
	orderID := chi.URLParam(req, "order_id")
	r.mu.Lock()
	defer r.mu.Unlock()
	return orderID, r.mounts[orderID]
}

var pageTemplate = template.Must(template.New("pay").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Payment for order {{.OrderID}}</title>
<script src="https://js.stripe.com/v3/"></script>
</head>
<body>
<div id="checkout"></div>
<script>
const base = {{.Base}};
const stripe = Stripe({{.PublishableKey}});
stripe.initEmbeddedCheckout({
  fetchClientSecret: () => fetch(base + "/session").then(r => r.json()).then(b => b.clientSecret),
  onComplete: () => fetch(base + "/complete", {method: "POST"})
    .then(r => r.json())
    .then(b => { document.getElementById("checkout").innerText = b.message; }),
}).then(checkout => checkout.mount("#checkout"));
</script>
</body>
</html>
`))

func (r *Registry) page(w http.ResponseWriter, req *http.Request) {
	orderID, mp := r.lookup(req)
	if mp == nil {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, map[string]string{
		"OrderID":        orderID,
		"Base":           PayPath(orderID),
		"PublishableKey": r.publishableKey,
	})
	if err != nil {
		r.log.ErrorContext(req.Context(), "render payment page failed", logger.Err(err))
	}
}

func (r *Registry) session(w http.ResponseWriter, req *http.Request) {
	_, mp := r.lookup(req)
	if mp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": ErrNotMounted.Error()})
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": mp.session.ClientSecret})
}

// complete runs the completion callback at most once per mount.
func (r *Registry) complete(w http.ResponseWriter, req *http.Request) {
	orderID, mp := r.lookup(req)
	if mp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": ErrNotMounted.Error()})
		return
	}
	if !mp.fired.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "payment already completed"})
		return
	}

	if err := mp.onComplete(req.Context()); err != nil {
		r.log.WarnContext(req.Context(), "payment completion failed", slog.String(logger.OrderID, orderID), logger.Err(err))
		// The widget may retry a failed confirmation.
		mp.fired.Store(false)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "message": "Payment could not be confirmed."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"orderId": orderID, "message": "Payment confirmed."})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
