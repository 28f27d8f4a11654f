package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRIVN-COOK/front-office/internal/checkoutui"
	"github.com/DRIVN-COOK/front-office/internal/domain"
)

func TestReportingWidget_ReportsFailedConfirmation(t *testing.T) {
	registry := checkoutui.NewRegistry("pk_test", nil)
	router := chi.NewRouter()
	registry.Register(router)

	var out bytes.Buffer
	w := reportingWidget{Widget: registry.Widget("o-1"), orderID: "o-1", out: &out}

	calls := 0
	require.NoError(t, w.Mount(context.Background(), domain.EmbeddedSession{SessionID: "cs_1", ClientSecret: "s"}, func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("gateway timeout")
		}
		return nil
	}))

	complete := func() int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, checkoutui.PayPath("o-1")+"/complete", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusBadGateway, complete())
	assert.Contains(t, out.String(), "Order o-1: payment could not be confirmed (gateway timeout)")
	assert.Contains(t, out.String(), "Retry from the payment page")

	out.Reset()
	assert.Equal(t, http.StatusOK, complete())
	assert.Empty(t, out.String())
	assert.Equal(t, 2, calls)
}
