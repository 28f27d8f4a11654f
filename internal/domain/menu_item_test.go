package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalString_AcceptsStringNumberAndNull(t *testing.T) {
	var item MenuItem
	err := json.Unmarshal([]byte(`{"id":"A","name":"Burger","isActive":true,"priceHT":"10.50","tvaPct":20,"imageUrl":null}`), &item)
	require.NoError(t, err)

	assert.Equal(t, DecimalString("10.50"), item.PriceHT)
	assert.Equal(t, DecimalString("20"), item.TvaPct)
	assert.Nil(t, item.ImageURL)

	var nullPrice MenuItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"B","priceHT":null}`), &nullPrice))
	assert.Equal(t, DecimalString(""), nullPrice.PriceHT)
}

func TestDecimalString_RejectsObjects(t *testing.T) {
	var d DecimalString
	assert.Error(t, json.Unmarshal([]byte(`{"v":1}`), &d))
}

func TestMenuItem_Available(t *testing.T) {
	no := false
	zero := 0
	five := 5

	tests := []struct {
		name string
		item MenuItem
		want bool
	}{
		{"active", MenuItem{IsActive: true}, true},
		{"inactive", MenuItem{IsActive: false}, false},
		{"out of stock status", MenuItem{IsActive: true, StockStatus: StockOut}, false},
		{"low stock still sells", MenuItem{IsActive: true, StockStatus: StockLow}, true},
		{"in stock false", MenuItem{IsActive: true, InStock: &no}, false},
		{"no quantity left", MenuItem{IsActive: true, AvailableQty: &zero}, false},
		{"quantity left", MenuItem{IsActive: true, AvailableQty: &five}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Available())
		})
	}
}

func TestOrderStatus_Paid(t *testing.T) {
	assert.False(t, OrderStatusPending.Paid())
	assert.False(t, OrderStatusCancelled.Paid())
	assert.True(t, OrderStatusConfirmed.Paid())
	assert.True(t, OrderStatusFulfilled.Paid())
	assert.True(t, OrderStatusPending.Valid())
	assert.False(t, OrderStatus("SHIPPED").Valid())
}
