// Package http is the storefront gateway: a JSON API over the cart, the
// order submitter and payment attempts, plus the embedded payment pages.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DRIVN-COOK/front-office/internal/checkoutui"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/metrics"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	Logger             *slog.Logger
	Gatherer           prometheus.Gatherer
}

type Handlers struct {
	Menu     *MenuHandler
	Cart     *CartHandler
	Orders   *OrdersHandler
	Checkout *CheckoutHandler
	Pay      *checkoutui.Registry
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	log := logger.OrDefault(cfg.Logger)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	timeout := middleware.Timeout(cfg.RequestTimeout)
	compress := middleware.Compress(5)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			// Long-lived stream, kept clear of the request timeout.
			r.Get("/events", h.Cart.Events)

			r.Group(func(r chi.Router) {
				r.Use(timeout, compress)
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.Clear)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{item_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{item_id}", h.Cart.RemoveItem)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(timeout, compress)

			r.Route("/menu", func(r chi.Router) {
				r.Get("/", h.Menu.List)
				r.Get("/{item_id}", h.Menu.Get)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Orders.Place)
				r.Get("/", h.Orders.List)
				r.Get("/{order_id}", h.Orders.Get)
			})
			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", h.Checkout.Start)
				r.Get("/{order_id}", h.Checkout.Get)
				r.Post("/{order_id}/confirm", h.Checkout.Confirm)
				r.Delete("/{order_id}", h.Checkout.Dispose)
			})
		})
	})

	h.Pay.Register(r)

	return otelhttp.NewHandler(r, "storefront-gateway")
}
