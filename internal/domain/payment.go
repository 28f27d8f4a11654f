package domain

import "github.com/stripe/stripe-go/v81"

// UIMode selects how the payment provider renders checkout.
type UIMode = stripe.CheckoutSessionUIMode

const (
	UIModeEmbedded = stripe.CheckoutSessionUIModeEmbedded
	UIModeHosted   = stripe.CheckoutSessionUIModeHosted
)

// PaymentSession is either a HostedSession or an EmbeddedSession.
type PaymentSession interface {
	paymentSession()
}

// HostedSession sends the customer to the provider's own page.
type HostedSession struct {
	ID  string
	URL string
}

// EmbeddedSession is rendered inline through the provider widget.
type EmbeddedSession struct {
	SessionID    string
	ClientSecret string
}

func (HostedSession) paymentSession()   {}
func (EmbeddedSession) paymentSession() {}
