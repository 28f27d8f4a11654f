package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/checkoutui"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/events"
	"github.com/DRIVN-COOK/front-office/internal/metrics"
)

type testGateway struct {
	handler   http.Handler
	store     *cart.Store
	submitter *SubmitterMock
	sessions  *SessionsMock
	pending   *events.PendingOrders
	checkout  *CheckoutHandler
	cart      *CartHandler
}

func setupGateway(t *testing.T, session domain.PaymentSession) *testGateway {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := newTestStore(t)
	menu := &MenuMock{items: map[string]domain.MenuItem{"A": menuItem("A", "10.00")}}
	submitter := &SubmitterMock{orderID: "o1"}
	sessions := &SessionsMock{session: session}
	pending := events.NewPendingOrders()
	registry := checkoutui.NewRegistry("pk_test", nil)
	checkout := NewCheckoutHandler(submitter, sessions, registry, store, pending, CheckoutConfig{
		Timeout: 5 * time.Second,
		Metrics: m,
	})

	cartHandler := NewCartHandler(store, menu, 5*time.Second, nil)
	handler := NewRouter(RouterConfig{RequestTimeout: 5 * time.Second, Gatherer: reg}, Handlers{
		Menu:     NewMenuHandler(menu, 5*time.Second, nil),
		Cart:     cartHandler,
		Orders:   NewOrdersHandler(&OrdersMock{}, submitter, store, 5*time.Second, nil),
		Checkout: checkout,
		Pay:      registry,
	})

	return &testGateway{
		handler:   handler,
		store:     store,
		submitter: submitter,
		sessions:  sessions,
		pending:   pending,
		checkout:  checkout,
		cart:      cartHandler,
	}
}

func (g *testGateway) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	recorder := httptest.NewRecorder()
	g.handler.ServeHTTP(recorder, httptest.NewRequest(method, path, r))
	return recorder
}

// readEvents decodes the data lines of a server-sent event stream.
func readEvents(body io.Reader) <-chan CartResponseDTO {
	out := make(chan CartResponseDTO, 8)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var resp CartResponseDTO
			if json.Unmarshal([]byte(data), &resp) == nil {
				out <- resp
			}
		}
	}()
	return out
}

func TestRouter_Health(t *testing.T) {
	g := setupGateway(t, nil)

	recorder := g.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
	assert.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
}

func TestRouter_CartRoutes(t *testing.T) {
	g := setupGateway(t, nil)

	assert.Equal(t, http.StatusOK, g.do(http.MethodPost, "/api/v1/cart/items", `{"itemId":"A","qty":2}`).Code)
	assert.Equal(t, http.StatusOK, g.do(http.MethodPut, "/api/v1/cart/items/A", `{"qty":5}`).Code)

	recorder := g.do(http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 5, decodeCart(t, recorder).Count)

	assert.Equal(t, http.StatusOK, g.do(http.MethodDelete, "/api/v1/cart/items/A", "").Code)
	assert.Equal(t, http.StatusNoContent, g.do(http.MethodDelete, "/api/v1/cart", "").Code)
	assert.Zero(t, g.store.Count())
}

func TestRouter_MetricsExposed(t *testing.T) {
	g := setupGateway(t, domain.HostedSession{ID: "cs_1", URL: "https://pay.example/cs_1"})
	require.NoError(t, g.store.Add(context.Background(), menuItem("A", "10.00"), 1))
	require.Equal(t, http.StatusCreated, g.do(http.MethodPost, "/api/v1/checkout", "").Code)

	recorder := g.do(http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `state="HOSTED_REDIRECT"`)
}

func TestRouter_CartEventsNotCutByTimeout(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := newTestStore(t)
	menu := &MenuMock{}
	registry := checkoutui.NewRegistry("pk_test", nil)
	handler := NewRouter(RouterConfig{RequestTimeout: 50 * time.Millisecond, Gatherer: reg}, Handlers{
		Menu:     NewMenuHandler(menu, time.Second, nil),
		Cart:     NewCartHandler(store, menu, time.Second, nil),
		Orders:   NewOrdersHandler(&OrdersMock{}, &SubmitterMock{}, store, time.Second, nil),
		Checkout: NewCheckoutHandler(&SubmitterMock{}, &SessionsMock{}, registry, store, nil, CheckoutConfig{}),
		Pay:      registry,
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/cart/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	events := readEvents(resp.Body)
	<-events

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, store.Add(ctx, menuItem("A", "10.00"), 1))

	select {
	case next, ok := <-events:
		require.True(t, ok, "stream closed")
		assert.Equal(t, 1, next.Count)
	case <-ctx.Done():
		t.Fatal("no event after cart change")
	}
}

func TestServer_ShutdownClosesEventStreams(t *testing.T) {
	g := setupGateway(t, nil)
	srv := NewServer("", g.handler, g.cart)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+lis.Addr().String()+"/api/v1/cart/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	events := readEvents(resp.Body)
	<-events

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelShutdown()
	require.NoError(t, srv.Shutdown(shutdownCtx), "open stream held shutdown up")
	assert.ErrorIs(t, <-served, http.ErrServerClosed)

	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream still open after shutdown")
	case <-ctx.Done():
		t.Fatal("stream not closed")
	}
}
