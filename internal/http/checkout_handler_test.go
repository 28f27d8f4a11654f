package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

var embedded = domain.EmbeddedSession{SessionID: "cs_1", ClientSecret: "cs_1_secret"}

func decodeCheckout(t *testing.T, recorder *httptest.ResponseRecorder) CheckoutResponseDTO {
	t.Helper()
	var resp CheckoutResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	return resp
}

func TestCheckout_EmbeddedFlow(t *testing.T) {
	g := setupGateway(t, embedded)
	require.NoError(t, g.store.Add(context.Background(), menuItem("A", "10.00"), 2))

	recorder := g.do(http.MethodPost, "/api/v1/checkout", "")
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	resp := decodeCheckout(t, recorder)
	assert.Equal(t, "o1", resp.OrderID)
	assert.Equal(t, domain.CheckoutStateEmbeddedMounted, resp.State)
	assert.Equal(t, "/pay/o1", resp.PayURL)
	assert.Equal(t, []domain.UIMode{domain.UIModeEmbedded}, g.sessions.modes)

	session := g.do(http.MethodGet, "/pay/o1/session", "")
	require.Equal(t, http.StatusOK, session.Code)
	assert.JSONEq(t, `{"clientSecret":"cs_1_secret"}`, session.Body.String())

	assert.Equal(t, http.StatusOK, g.do(http.MethodPost, "/pay/o1/complete", "").Code)

	assert.Equal(t, []string{"cs_1"}, g.sessions.confirmed)
	assert.Zero(t, g.store.Count())

	state := decodeCheckout(t, g.do(http.MethodGet, "/api/v1/checkout/o1", ""))
	assert.Equal(t, domain.CheckoutStateDone, state.State)
	assert.Empty(t, state.PayURL)
}

func TestCheckout_HostedFlow(t *testing.T) {
	g := setupGateway(t, domain.HostedSession{ID: "cs_2", URL: "https://pay.example/cs_2"})
	require.NoError(t, g.store.Add(context.Background(), menuItem("A", "10.00"), 1))

	recorder := g.do(http.MethodPost, "/api/v1/checkout", `{"uiMode":"hosted"}`)

	require.Equal(t, http.StatusCreated, recorder.Code)
	resp := decodeCheckout(t, recorder)
	assert.Equal(t, domain.CheckoutStateHostedRedirect, resp.State)
	assert.Equal(t, "https://pay.example/cs_2", resp.RedirectURL)
	assert.Empty(t, resp.PayURL)
	assert.Equal(t, []domain.UIMode{domain.UIModeHosted}, g.sessions.modes)
	assert.Equal(t, 1, g.pending.Len())
	assert.Equal(t, 1, g.store.Count(), "hosted checkout leaves the cart to the order event")
}

func TestCheckout_InvalidMode(t *testing.T) {
	g := setupGateway(t, embedded)

	recorder := g.do(http.MethodPost, "/api/v1/checkout", `{"uiMode":"popup"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, g.submitter.calls)
}

func TestCheckout_SessionFailureIsFinal(t *testing.T) {
	g := setupGateway(t, nil)
	g.sessions.err = errors.New("stripe down")
	require.NoError(t, g.store.Add(context.Background(), menuItem("A", "10.00"), 1))

	recorder := g.do(http.MethodPost, "/api/v1/checkout", "")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	state := decodeCheckout(t, g.do(http.MethodGet, "/api/v1/checkout/o1", ""))
	assert.Equal(t, domain.CheckoutStateFailed, state.State)
	assert.Equal(t, "stripe down", state.Error)

	assert.Equal(t, http.StatusConflict, g.do(http.MethodPost, "/api/v1/checkout/o1/confirm", "").Code)
}

func TestCheckout_ConfirmRetryAfterFailure(t *testing.T) {
	g := setupGateway(t, embedded)
	g.sessions.confirmErr = errors.New("declined")
	require.NoError(t, g.store.Add(context.Background(), menuItem("A", "10.00"), 1))
	require.Equal(t, http.StatusCreated, g.do(http.MethodPost, "/api/v1/checkout", "").Code)

	assert.Equal(t, http.StatusBadGateway, g.do(http.MethodPost, "/pay/o1/complete", "").Code)
	assert.Equal(t, domain.CheckoutStateFailed, decodeCheckout(t, g.do(http.MethodGet, "/api/v1/checkout/o1", "")).State)
	assert.Equal(t, 1, g.store.Count())

	g.sessions.confirmErr = nil
	recorder := g.do(http.MethodPost, "/api/v1/checkout/o1/confirm", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, domain.CheckoutStateDone, decodeCheckout(t, recorder).State)
	assert.Equal(t, []string{"cs_1", "cs_1"}, g.sessions.confirmed)
	assert.Zero(t, g.store.Count())
}

func TestCheckout_Dispose(t *testing.T) {
	g := setupGateway(t, embedded)
	require.NoError(t, g.store.Add(context.Background(), menuItem("A", "10.00"), 1))
	require.Equal(t, http.StatusCreated, g.do(http.MethodPost, "/api/v1/checkout", "").Code)

	assert.Equal(t, http.StatusNoContent, g.do(http.MethodDelete, "/api/v1/checkout/o1", "").Code)

	assert.Equal(t, http.StatusNotFound, g.do(http.MethodGet, "/pay/o1/session", "").Code)
	assert.Equal(t, http.StatusNotFound, g.do(http.MethodGet, "/api/v1/checkout/o1", "").Code)
	assert.Empty(t, g.sessions.confirmed)
	assert.Equal(t, 1, g.store.Count())
}

func TestCheckout_UnknownOrder(t *testing.T) {
	g := setupGateway(t, embedded)

	recorder := g.do(http.MethodGet, "/api/v1/checkout/nope", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "checkout_not_found", response.Code)
}

func TestCheckout_FinishedAttemptsArePruned(t *testing.T) {
	g := setupGateway(t, domain.HostedSession{ID: "cs_2", URL: "https://pay.example/cs_2"})
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.checkout.now = func() time.Time { return clock }
	g.checkout.cfg.Retention = time.Minute

	start := func(orderID string) {
		t.Helper()
		g.submitter.orderID = orderID
		require.Equal(t, http.StatusCreated, g.do(http.MethodPost, "/api/v1/checkout", "").Code)
	}

	start("o1")
	start("o2")
	assert.Equal(t, http.StatusOK, g.do(http.MethodGet, "/api/v1/checkout/o1", "").Code, "kept within retention")

	clock = clock.Add(2 * time.Minute)
	start("o3")

	assert.Equal(t, http.StatusNotFound, g.do(http.MethodGet, "/api/v1/checkout/o1", "").Code)
	assert.Equal(t, http.StatusOK, g.do(http.MethodGet, "/api/v1/checkout/o2", "").Code)
	assert.Equal(t, http.StatusOK, g.do(http.MethodGet, "/api/v1/checkout/o3", "").Code)

	g.checkout.mu.Lock()
	assert.Len(t, g.checkout.attempts, 2)
	g.checkout.mu.Unlock()
}

func TestCheckout_RetryableAttemptIsNotPruned(t *testing.T) {
	g := setupGateway(t, embedded)
	g.sessions.confirmErr = errors.New("declined")
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.checkout.now = func() time.Time { return clock }
	g.checkout.cfg.Retention = time.Minute

	require.Equal(t, http.StatusCreated, g.do(http.MethodPost, "/api/v1/checkout", "").Code)
	assert.Equal(t, http.StatusBadGateway, g.do(http.MethodPost, "/pay/o1/complete", "").Code)

	for _, orderID := range []string{"o2", "o3"} {
		clock = clock.Add(2 * time.Minute)
		g.submitter.orderID = orderID
		require.Equal(t, http.StatusCreated, g.do(http.MethodPost, "/api/v1/checkout", "").Code)
	}

	state := decodeCheckout(t, g.do(http.MethodGet, "/api/v1/checkout/o1", ""))
	assert.Equal(t, domain.CheckoutStateFailed, state.State)
}
