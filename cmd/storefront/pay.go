package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/DRIVN-COOK/front-office/internal/checkoutui"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/payment"
)

// pay places the cart and runs one payment attempt for it. Interrupting
// the command disposes the attempt.
func (a *app) pay(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("pay", flag.ContinueOnError)
	mode := fs.String("mode", a.cfg.PaymentUIMode, "embedded or hosted")
	scope := a.addScopeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a.applyScope(scope)
	uiMode := domain.UIMode(*mode)
	if uiMode != domain.UIModeEmbedded && uiMode != domain.UIModeHosted {
		return errUsage
	}

	orderID, err := a.submitter.Submit(ctx, a.store.Lines())
	if err != nil {
		return err
	}

	registry := checkoutui.NewRegistry(a.cfg.StripePublishableKey, a.log)
	widget := reportingWidget{Widget: registry.Widget(orderID), orderID: orderID, out: out}
	attempt := payment.New(orderID, a.client, widget, checkoutui.ConsoleNavigator{Out: out}, a.store, payment.Config{
		Mode:           uiMode,
		ConfirmTimeout: a.cfg.ConfirmTimeout,
		Logger:         a.log,
		Metrics:        a.metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServe := context.WithCancel(gctx)
	if uiMode == domain.UIModeEmbedded {
		g.Go(func() error { return registry.Serve(serveCtx, a.cfg.CheckoutAddr) })
	}

	g.Go(func() error {
		defer stopServe()
		if err := attempt.Start(gctx); err != nil {
			return err
		}
		if attempt.State() == domain.CheckoutStateEmbeddedMounted {
			fmt.Fprintf(out, "Order %s: open http://%s%s to pay.\n", orderID, a.cfg.CheckoutAddr, checkoutui.PayPath(orderID))
		}

		select {
		case <-attempt.Done():
		case <-gctx.Done():
			attempt.Dispose()
			return gctx.Err()
		}

		switch attempt.State() {
		case domain.CheckoutStateHostedRedirect:
			fmt.Fprintln(out, "Your cart is kept until the payment is confirmed.")
		case domain.CheckoutStateDone:
		default:
			if err := attempt.Err(); err != nil {
				return err
			}
			return payment.ErrDisposed
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(out, "Payment for order %s abandoned.\n", orderID)
		return nil
	}
	return err
}

// reportingWidget tells the console user when a confirmation from the pay
// page failed. The attempt stays open so the page can retry.
type reportingWidget struct {
	payment.Widget
	orderID string
	out     io.Writer
}

func (w reportingWidget) Mount(ctx context.Context, s domain.EmbeddedSession, onComplete func(context.Context) error) error {
	return w.Widget.Mount(ctx, s, func(ctx context.Context) error {
		err := onComplete(ctx)
		if err != nil && !errors.Is(err, payment.ErrDisposed) {
			fmt.Fprintf(w.out, "Order %s: payment could not be confirmed (%v). Retry from the payment page or press Ctrl-C to abandon.\n", w.orderID, err)
		}
		return err
	})
}
