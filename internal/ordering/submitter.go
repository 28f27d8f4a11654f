// Package ordering turns a cart into a backend order with one line per
// cart entry.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/pricing"
)

type OrderAPI interface {
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*domain.Order, error)
	AddOrderLine(ctx context.Context, req api.CreateOrderLineRequest) (*domain.OrderLine, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type Identity interface {
	CustomerID(ctx context.Context) (string, error)
	Scope(ctx context.Context) (domain.Scope, error)
}

type Submitter struct {
	orders     OrderAPI
	identity   Identity
	compensate bool
	channel    domain.Channel
	log        *slog.Logger
}

// NewSubmitter builds a submitter. With compensate set, an order left with
// missing lines is cancelled.
func NewSubmitter(orders OrderAPI, identity Identity, compensate bool, log *slog.Logger) *Submitter {
	return &Submitter{
		orders:     orders,
		identity:   identity,
		compensate: compensate,
		channel:    domain.ChannelOnlinePreorder,
		log:        logger.OrDefault(log),
	}
}

// Submit creates the order header then its lines, in cart order, and
// returns the order id. The cart is left untouched. On a PartialOrderError
// the id of the incomplete order is returned too.
func (s *Submitter) Submit(ctx context.Context, lines []domain.CartLine) (string, error) {
	if len(lines) == 0 {
		return "", &PreconditionError{Err: ErrEmptyCart}
	}
	customerID, err := s.identity.CustomerID(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve customer: %w", err)
	}
	if customerID == "" {
		return "", &PreconditionError{Err: ErrNoCustomer}
	}
	scope, err := s.identity.Scope(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve franchisee: %w", err)
	}
	if scope.FranchiseeID == "" {
		return "", &PreconditionError{Err: ErrNoFranchisee}
	}

	totals := pricing.Cart(lines)
	order, err := s.orders.CreateOrder(ctx, api.CreateOrderRequest{
		CustomerID:   customerID,
		FranchiseeID: scope.FranchiseeID,
		TruckID:      scope.TruckID,
		WarehouseID:  scope.WarehouseID,
		Channel:      s.channel,
		TotalHT:      pricing.RoundMoney(totals.LineHT),
		TotalTVA:     pricing.RoundMoney(totals.LineTVA),
		TotalTTC:     pricing.RoundMoney(totals.LineTTC),
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	if order.ID == "" {
		return "", errors.New("create order: response has no id")
	}

	log := s.log.With(slog.String(logger.OrderID, order.ID))
	for i, line := range lines {
		lt := pricing.Line(line)
		_, err := s.orders.AddOrderLine(ctx, api.CreateOrderLineRequest{
			CustomerOrderID: order.ID,
			MenuItemID:      line.Item.ID,
			Qty:             line.Qty,
			UnitPriceHT:     pricing.RoundMoney(lt.UnitHT),
			TvaPct:          pricing.RoundRate(lt.TvaPct),
			LineTotalHT:     pricing.RoundMoney(lt.LineHT),
		})
		if err != nil {
			return order.ID, s.partial(ctx, log, order.ID, i, len(lines), err)
		}
	}

	log.InfoContext(ctx, "order submitted", slog.Int("lines", len(lines)))
	return order.ID, nil
}

func (s *Submitter) partial(ctx context.Context, log *slog.Logger, orderID string, persisted, expected int, cause error) error {
	perr := &PartialOrderError{
		OrderID:   orderID,
		Persisted: persisted,
		Expected:  expected,
		Err:       cause,
	}
	if !s.compensate {
		log.WarnContext(ctx, "order left with missing lines", slog.Int("persisted", persisted), slog.Int("expected", expected), logger.Err(cause))
		return perr
	}

	// The caller may already be gone; the cancel must still reach the backend.
	cctx := context.WithoutCancel(ctx)
	if _, err := s.orders.UpdateOrderStatus(cctx, orderID, domain.OrderStatusCancelled); err != nil {
		perr.CompensationErr = err
		log.ErrorContext(ctx, "cancelling partial order failed", logger.Err(err))
		return perr
	}
	perr.Compensated = true
	log.WarnContext(ctx, "partial order cancelled", slog.Int("persisted", persisted), slog.Int("expected", expected), logger.Err(cause))
	return perr
}
