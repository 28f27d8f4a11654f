package domain

// CheckoutState is the lifecycle of one payment attempt for one order.
type CheckoutState string

const (
	CheckoutStateIdle              CheckoutState = "IDLE"
	CheckoutStateRequestingSession CheckoutState = "REQUESTING_SESSION"
	CheckoutStateHostedRedirect    CheckoutState = "HOSTED_REDIRECT"
	CheckoutStateEmbeddedMounting  CheckoutState = "EMBEDDED_MOUNTING"
	CheckoutStateEmbeddedMounted   CheckoutState = "EMBEDDED_MOUNTED"
	CheckoutStateCompleting        CheckoutState = "COMPLETING"
	CheckoutStateDone              CheckoutState = "DONE"
	CheckoutStateFailed            CheckoutState = "FAILED"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:              {CheckoutStateRequestingSession},
	CheckoutStateRequestingSession: {CheckoutStateHostedRedirect, CheckoutStateEmbeddedMounting},
	CheckoutStateEmbeddedMounting:  {CheckoutStateEmbeddedMounted},
	CheckoutStateEmbeddedMounted:   {CheckoutStateCompleting},
	CheckoutStateCompleting:        {CheckoutStateDone},
	// confirmation may be retried by hand once the session is known
	CheckoutStateFailed: {CheckoutStateCompleting},
}

// CanTransitionTo reports whether from -> to is a legal move. Any
// non-terminal state may fail.
func CanTransitionTo(from, to CheckoutState) bool {
	if to == CheckoutStateFailed {
		return !from.IsTerminal() && from != CheckoutStateFailed
	}
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal is true once the attempt can no longer change from this
// component's point of view.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateDone || s == CheckoutStateHostedRedirect
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}
