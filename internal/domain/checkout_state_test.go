package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from CheckoutState
		to   CheckoutState
		ok   bool
	}{
		{"idle to requesting", CheckoutStateIdle, CheckoutStateRequestingSession, true},
		{"requesting to hosted", CheckoutStateRequestingSession, CheckoutStateHostedRedirect, true},
		{"requesting to mounting", CheckoutStateRequestingSession, CheckoutStateEmbeddedMounting, true},
		{"mounting to mounted", CheckoutStateEmbeddedMounting, CheckoutStateEmbeddedMounted, true},
		{"mounted to completing", CheckoutStateEmbeddedMounted, CheckoutStateCompleting, true},
		{"completing to done", CheckoutStateCompleting, CheckoutStateDone, true},
		{"failed to completing", CheckoutStateFailed, CheckoutStateCompleting, true},
		{"idle fails", CheckoutStateIdle, CheckoutStateFailed, true},
		{"completing fails", CheckoutStateCompleting, CheckoutStateFailed, true},
		{"idle cannot mount", CheckoutStateIdle, CheckoutStateEmbeddedMounting, false},
		{"requesting cannot complete", CheckoutStateRequestingSession, CheckoutStateCompleting, false},
		{"mounted cannot request again", CheckoutStateEmbeddedMounted, CheckoutStateRequestingSession, false},
		{"done is terminal", CheckoutStateDone, CheckoutStateFailed, false},
		{"hosted is terminal", CheckoutStateHostedRedirect, CheckoutStateCompleting, false},
		{"failed cannot fail again", CheckoutStateFailed, CheckoutStateFailed, false},
		{"failed cannot restart", CheckoutStateFailed, CheckoutStateRequestingSession, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestCheckoutState_IsTerminal(t *testing.T) {
	assert.True(t, CheckoutStateDone.IsTerminal())
	assert.True(t, CheckoutStateHostedRedirect.IsTerminal())
	assert.False(t, CheckoutStateFailed.IsTerminal())
	assert.False(t, CheckoutStateEmbeddedMounted.IsTerminal())
}
