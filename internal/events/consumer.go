// Package events consumes customer order events to finish hosted checkouts.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
)

const retryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type CartClearer interface {
	Clear(ctx context.Context) error
}

// OrderEvent is published by the backend whenever a customer order changes
// status.
type OrderEvent struct {
	OrderID    string             `json:"orderId"`
	CustomerID string             `json:"customerId"`
	Status     domain.OrderStatus `json:"status"`
}

type Consumer struct {
	reader     messageReader
	customerID string
	pending    *PendingOrders
	cart       CartClearer
	log        *slog.Logger
}

func NewConsumer(brokers []string, topic, customerID string, pending *PendingOrders, cart CartClearer, log *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "storefront-" + customerID,
		MaxBytes: 1e6,
	})
	return newConsumer(reader, customerID, pending, cart, log)
}

func newConsumer(reader messageReader, customerID string, pending *PendingOrders, cart CartClearer, log *slog.Logger) *Consumer {
	return &Consumer{
		reader:     reader,
		customerID: customerID,
		pending:    pending,
		cart:       cart,
		log:        logger.OrDefault(log),
	}
}

// Run reads events until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			c.log.WarnContext(ctx, "error reading order event", logger.Err(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}
		c.handle(ctx, m)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing order events reader", logger.Err(err))
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	var ev OrderEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		c.log.WarnContext(ctx, "skipping malformed order event", slog.Int64("offset", m.Offset), logger.Err(err))
		return
	}
	if ev.OrderID == "" || (c.customerID != "" && ev.CustomerID != c.customerID) {
		return
	}

	log := c.log.With(slog.String(logger.OrderID, ev.OrderID), slog.String(logger.Status, string(ev.Status)))
	switch {
	case ev.Status.Paid():
		if !c.pending.Remove(ev.OrderID) {
			return
		}
		if err := c.cart.Clear(ctx); err != nil {
			log.ErrorContext(ctx, "failed to clear cart after hosted payment", logger.Err(err))
			return
		}
		log.InfoContext(ctx, "hosted payment confirmed, cart cleared")
	case ev.Status == domain.OrderStatusCancelled:
		if c.pending.Remove(ev.OrderID) {
			log.InfoContext(ctx, "hosted checkout cancelled")
		}
	}
}
