package checkoutui

import (
	"context"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

// Widget is the embedded payment UI of one order. The mount outlives the
// context passed to Mount; only Unmount removes it.
type Widget struct {
	registry *Registry
	orderID  string
}

func (w *Widget) Mount(_ context.Context, session domain.EmbeddedSession, onComplete func(context.Context) error) error {
	return w.registry.mount(w.orderID, &mountPoint{
		session:    session,
		onComplete: onComplete,
	})
}

func (w *Widget) Unmount() error {
	return w.registry.unmount(w.orderID)
}
