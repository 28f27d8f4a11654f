// Package identity resolves who is ordering and for which outlet.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
)

var ErrNoToken = errors.New("no access token")

// ProfileSource fetches the signed-in session profile.
type ProfileSource interface {
	Me(ctx context.Context) (*api.Profile, error)
}

// CustomerIDFromToken reads the customer id from an access token without
// checking its signature; the backend verifies it on every call.
func CustomerIDFromToken(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", ErrNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}

	if id, ok := claims["customerId"].(string); ok && id != "" {
		return id, nil
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject: %w", err)
	}
	return sub, nil
}

type Resolver struct {
	token            string
	fallbackCustomer string
	local            domain.Scope
	profiles         ProfileSource
	log              *slog.Logger

	mu                sync.Mutex
	profileFranchisee string
}

// NewResolver builds a resolver. local is the scope selected on this device;
// profiles may be nil when there is no session to query.
func NewResolver(token, fallbackCustomer string, local domain.Scope, profiles ProfileSource, log *slog.Logger) *Resolver {
	return &Resolver{
		token:            token,
		fallbackCustomer: fallbackCustomer,
		local:            local,
		profiles:         profiles,
		log:              logger.OrDefault(log),
	}
}

// CustomerID returns the token's customer, else the configured fallback.
// An empty result means the customer is unknown.
func (r *Resolver) CustomerID(ctx context.Context) (string, error) {
	id, err := CustomerIDFromToken(r.token)
	switch {
	case err == nil && id != "":
		return id, nil
	case err != nil && !errors.Is(err, ErrNoToken):
		r.log.WarnContext(ctx, "ignoring unreadable access token", logger.Err(err))
	}
	return r.fallbackCustomer, nil
}

// Scope returns the local selection, completing the franchisee from the
// session profile when it was not selected locally.
func (r *Resolver) Scope(ctx context.Context) (domain.Scope, error) {
	scope := r.local
	if scope.FranchiseeID != "" || r.profiles == nil {
		return scope, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profileFranchisee == "" {
		p, err := r.profiles.Me(ctx)
		if err != nil {
			return scope, fmt.Errorf("load session profile: %w", err)
		}
		r.profileFranchisee = p.FranchiseeID()
	}
	scope.FranchiseeID = r.profileFranchisee
	return scope, nil
}
