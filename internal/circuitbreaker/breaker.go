// Package circuitbreaker configures the breakers guarding outbound calls.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/DRIVN-COOK/front-office/internal/logger"
)

const (
	consecutiveFailures = 5
	openTimeout         = 30 * time.Second
	halfOpenRequests    = 1
)

// New returns a breaker that opens after consecutive failures and logs
// every state change.
func New[T any](name string, log *slog.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](Settings(name, log))
}

func Settings(name string, log *slog.Logger) gobreaker.Settings {
	log = logger.OrDefault(log)
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenRequests,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
}

// Unavailable reports whether err was produced by the breaker itself.
func Unavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
