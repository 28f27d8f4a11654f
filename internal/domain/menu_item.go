package domain

import "time"

type StockStatus string

const (
	StockInStock StockStatus = "IN_STOCK"
	StockLow     StockStatus = "LOW"
	StockOut     StockStatus = "OUT"
)

type MenuItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	IsActive    bool          `json:"isActive"`
	PriceHT     DecimalString `json:"priceHT"`
	TvaPct      DecimalString `json:"tvaPct"`
	ImageURL    *string       `json:"imageUrl,omitempty"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`

	// Stock hints, only present when the backend exposes inventory.
	InStock      *bool       `json:"inStock,omitempty"`
	AvailableQty *int        `json:"availableQty,omitempty"`
	StockStatus  StockStatus `json:"stockStatus,omitempty"`
}

// Available reports whether the item may be put in a cart.
func (m MenuItem) Available() bool {
	if !m.IsActive {
		return false
	}
	if m.StockStatus == StockOut {
		return false
	}
	if m.InStock != nil && !*m.InStock {
		return false
	}
	if m.AvailableQty != nil && *m.AvailableQty <= 0 {
		return false
	}
	return true
}
