package checkoutui

import (
	"context"
	"fmt"
	"io"
)

// ConsoleNavigator tells a terminal user where to go next.
type ConsoleNavigator struct {
	Out io.Writer
}

func (n ConsoleNavigator) Redirect(_ context.Context, orderID, url string) error {
	_, err := fmt.Fprintf(n.Out, "Order %s: continue to payment at %s\n", orderID, url)
	return err
}

func (n ConsoleNavigator) Confirmation(_ context.Context, orderID string) error {
	_, err := fmt.Fprintf(n.Out, "Order %s confirmed. Thank you!\n", orderID)
	return err
}
