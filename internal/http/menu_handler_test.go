package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

func TestListMenu_ParsesQuery(t *testing.T) {
	menu := &MenuMock{items: map[string]domain.MenuItem{"A": menuItem("A", "10.00")}}
	h := NewMenuHandler(menu, 5*time.Second, nil)

	recorder := httptest.NewRecorder()
	h.List(recorder, httptest.NewRequest(http.MethodGet, "/?page=1&pageSize=20&active=true", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, menu.lastParams.Page)
	assert.Equal(t, 20, menu.lastParams.PageSize)
	require.NotNil(t, menu.lastParams.Active)
	assert.True(t, *menu.lastParams.Active)

	var resp domain.Paginated[domain.MenuItem]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Len(t, resp.Items, 1)
}

func TestListMenu_ActiveOmitted(t *testing.T) {
	menu := &MenuMock{}
	h := NewMenuHandler(menu, 5*time.Second, nil)

	recorder := httptest.NewRecorder()
	h.List(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, menu.lastParams.Active)
}

func TestListMenu_InvalidQuery(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedCode string
	}{
		{"Active", "?active=maybe", "invalid_active"},
		{"Page", "?page=-1", "invalid_page"},
		{"PageSize", "?pageSize=x", "invalid_pageSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMenuHandler(&MenuMock{}, 5*time.Second, nil)

			recorder := httptest.NewRecorder()
			h.List(recorder, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			var response ErrorResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
			assert.Equal(t, tt.expectedCode, response.Code)
		})
	}
}

func TestGetMenuItem(t *testing.T) {
	h := NewMenuHandler(&MenuMock{items: map[string]domain.MenuItem{"A": menuItem("A", "10.00")}}, 5*time.Second, nil)

	recorder := httptest.NewRecorder()
	h.Get(recorder, withURLParam(httptest.NewRequest(http.MethodGet, "/A", nil), "item_id", "A"))

	require.Equal(t, http.StatusOK, recorder.Code)
	var item domain.MenuItem
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&item))
	assert.Equal(t, "A", item.ID)
}
