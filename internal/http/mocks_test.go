package http

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/domain"
)

type MenuMock struct {
	items      map[string]domain.MenuItem
	err        error
	lastParams api.ListMenuParams
}

func (m *MenuMock) ListMenuItems(_ context.Context, p api.ListMenuParams) (*domain.Paginated[domain.MenuItem], error) {
	m.lastParams = p
	if m.err != nil {
		return nil, m.err
	}
	out := &domain.Paginated[domain.MenuItem]{}
	for _, it := range m.items {
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func (m *MenuMock) GetMenuItem(_ context.Context, id string) (*domain.MenuItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	it, ok := m.items[id]
	if !ok {
		return nil, &api.APIError{Status: http.StatusNotFound, Message: "menu item not found"}
	}
	return &it, nil
}

type SubmitterMock struct {
	orderID string
	err     error

	mu    sync.Mutex
	calls [][]domain.CartLine
}

func (s *SubmitterMock) Submit(_ context.Context, lines []domain.CartLine) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, lines)
	s.mu.Unlock()
	if s.err != nil {
		return s.orderID, s.err
	}
	return s.orderID, nil
}

type OrdersMock struct {
	order      *domain.Order
	err        error
	lastParams api.ListOrdersParams
}

func (o *OrdersMock) GetOrder(_ context.Context, _ string) (*domain.Order, error) {
	return o.order, o.err
}

func (o *OrdersMock) ListMyOrders(_ context.Context, p api.ListOrdersParams) (*domain.Paginated[domain.Order], error) {
	o.lastParams = p
	if o.err != nil {
		return nil, o.err
	}
	return &domain.Paginated[domain.Order]{Items: []domain.Order{*o.order}}, nil
}

type SessionsMock struct {
	session    domain.PaymentSession
	err        error
	confirmErr error

	mu        sync.Mutex
	modes     []domain.UIMode
	confirmed []string
}

func (s *SessionsMock) CreateCheckoutSession(_ context.Context, _ string, mode domain.UIMode) (domain.PaymentSession, error) {
	s.mu.Lock()
	s.modes = append(s.modes, mode)
	s.mu.Unlock()
	return s.session, s.err
}

func (s *SessionsMock) ConfirmPayment(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed = append(s.confirmed, sessionID)
	return s.confirmErr
}

func menuItem(id, price string) domain.MenuItem {
	return domain.MenuItem{
		ID:       id,
		Name:     "Item " + id,
		IsActive: true,
		PriceHT:  domain.DecimalString(price),
		TvaPct:   "20",
	}
}

func newTestStore(t *testing.T) *cart.Store {
	t.Helper()
	store, err := cart.NewStore(context.Background(), cart.NewFileStorage(t.TempDir()), "cart")
	require.NoError(t, err)
	return store
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
