package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/domain"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

type fakeProfiles struct {
	profile *api.Profile
	err     error
	calls   int
}

func (f *fakeProfiles) Me(context.Context) (*api.Profile, error) {
	f.calls++
	return f.profile, f.err
}

func TestCustomerIDFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	id, err := CustomerIDFromToken(signToken(t, jwt.MapClaims{"sub": "user-1", "customerId": "cust-1", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, "cust-1", id)

	id, err = CustomerIDFromToken("Bearer " + signToken(t, jwt.MapClaims{"sub": "user-2"}))
	require.NoError(t, err)
	assert.Equal(t, "user-2", id)

	_, err = CustomerIDFromToken("")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = CustomerIDFromToken("not-a-jwt")
	assert.Error(t, err)
}

func TestCustomerIDFromToken_ExpiredStillReadable(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"customerId": "cust-9", "exp": time.Now().Add(-time.Hour).Unix()})
	id, err := CustomerIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cust-9", id)
}

func TestResolver_CustomerID(t *testing.T) {
	ctx := context.Background()

	r := NewResolver(signToken(t, jwt.MapClaims{"customerId": "cust-1"}), "fallback", domain.Scope{}, nil, nil)
	id, err := r.CustomerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", id)

	r = NewResolver("", "fallback", domain.Scope{}, nil, nil)
	id, _ = r.CustomerID(ctx)
	assert.Equal(t, "fallback", id)

	r = NewResolver("garbage", "fallback", domain.Scope{}, nil, nil)
	id, _ = r.CustomerID(ctx)
	assert.Equal(t, "fallback", id)

	r = NewResolver("", "", domain.Scope{}, nil, nil)
	id, _ = r.CustomerID(ctx)
	assert.Empty(t, id)
}

func TestResolver_ScopePrefersLocalSelection(t *testing.T) {
	profiles := &fakeProfiles{profile: &api.Profile{LegacyFranchiseeID: "f-profile"}}
	r := NewResolver("", "", domain.Scope{FranchiseeID: "f-local", TruckID: "t-1"}, profiles, nil)

	scope, err := r.Scope(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Scope{FranchiseeID: "f-local", TruckID: "t-1"}, scope)
	assert.Zero(t, profiles.calls)
}

func TestResolver_ScopeFromProfile(t *testing.T) {
	profiles := &fakeProfiles{profile: &api.Profile{Franchisee: nil, LegacyFranchiseeID: "f-profile"}}
	r := NewResolver("", "", domain.Scope{WarehouseID: "w-1"}, profiles, nil)

	for i := 0; i < 2; i++ {
		scope, err := r.Scope(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.Scope{FranchiseeID: "f-profile", WarehouseID: "w-1"}, scope)
	}
	assert.Equal(t, 1, profiles.calls)
}

func TestResolver_ScopeProfileError(t *testing.T) {
	boom := errors.New("unauthorized")
	r := NewResolver("", "", domain.Scope{}, &fakeProfiles{err: boom}, nil)

	scope, err := r.Scope(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, scope.FranchiseeID)
}

func TestResolver_ScopeWithoutProfileSource(t *testing.T) {
	r := NewResolver("", "", domain.Scope{}, nil, nil)
	scope, err := r.Scope(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scope.FranchiseeID)
}
