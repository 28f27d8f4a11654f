package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/DRIVN-COOK/front-office/internal/checkoutui"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/events"
	"github.com/DRIVN-COOK/front-office/internal/grpcserver"
	h "github.com/DRIVN-COOK/front-office/internal/http"
	"github.com/DRIVN-COOK/front-office/internal/logger"
)

// serve runs the gateway, the gRPC health endpoint, the cart watcher and,
// when brokers are configured, the order events consumer until ctx is done.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	pending := events.NewPendingOrders()
	registry := checkoutui.NewRegistry(cfg.StripePublishableKey, a.log)
	checkout := h.NewCheckoutHandler(a.submitter, a.client, registry, a.store, pending, h.CheckoutConfig{
		Mode:           domain.UIMode(cfg.PaymentUIMode),
		ConfirmTimeout: cfg.ConfirmTimeout,
		Timeout:        cfg.RequestTimeout,
		Retention:      cfg.CheckoutRetention,
		Logger:         a.log,
		Metrics:        a.metrics,
	})
	defer checkout.DisposeAll()

	cartHandler := h.NewCartHandler(a.store, a.client, cfg.RequestTimeout, a.log)
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Logger:             a.log,
		Gatherer:           a.registry,
	}, h.Handlers{
		Menu:     h.NewMenuHandler(a.client, cfg.RequestTimeout, a.log),
		Cart:     cartHandler,
		Orders:   h.NewOrdersHandler(a.client, a.submitter, a.store, cfg.RequestTimeout, a.log),
		Checkout: checkout,
		Pay:      registry,
	})
	srv := h.NewServer(":"+cfg.HTTPPort, router, cartHandler)

	// Bind both ports before anything runs so a taken port fails fast.
	httpLis, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	grpcLis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("gateway starting", slog.String("addr", httpLis.Addr().String()))
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return grpcserver.New(a.client, a.log).Serve(gctx, grpcLis)
	})

	g.Go(func() error {
		return a.store.Run(gctx)
	})

	if len(cfg.KafkaBrokers) > 0 {
		customerID, err := a.identity.CustomerID(ctx)
		if err != nil || customerID == "" {
			a.log.Warn("order events disabled, customer unknown", logger.Err(err))
		} else {
			consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.OrderEventsTopic, customerID, pending, a.store, a.log)
			g.Go(func() error {
				defer consumer.Close()
				return consumer.Run(gctx)
			})
		}
	}

	err = g.Wait()
	a.log.Info("server exited")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
