package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
)

type OrdersAPI interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListMyOrders(ctx context.Context, p api.ListOrdersParams) (*domain.Paginated[domain.Order], error)
}

type Submitter interface {
	Submit(ctx context.Context, lines []domain.CartLine) (string, error)
}

type OrdersHandler struct {
	orders    OrdersAPI
	submitter Submitter
	store     *cart.Store
	timeout   time.Duration
	log       *slog.Logger
}

func NewOrdersHandler(orders OrdersAPI, submitter Submitter, store *cart.Store, timeout time.Duration, log *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:    orders,
		submitter: submitter,
		store:     store,
		timeout:   timeout,
		log:       logger.OrDefault(log),
	}
}

type OrderCreatedDTO struct {
	OrderID string `json:"orderId"`
}

// Place submits the cart as an order to be paid at pickup, then empties it.
func (h *OrdersHandler) Place(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := h.submitter.Submit(ctx, h.store.Lines())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.store.Clear(ctx); err != nil {
		h.log.WarnContext(ctx, "clearing cart after order failed", slog.String(logger.OrderID, orderID), logger.Err(err))
	}
	respondJSON(w, http.StatusCreated, OrderCreatedDTO{OrderID: orderID})
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, pageSize, ok := parsePage(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListMyOrders(ctx, api.ListOrdersParams{
		Status:   domain.OrderStatus(r.URL.Query().Get("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
