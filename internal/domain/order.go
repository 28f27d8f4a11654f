package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Paid reports whether the backend has accepted payment for the order.
func (s OrderStatus) Paid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady, OrderStatusFulfilled:
		return true
	}
	return false
}

func (s OrderStatus) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusCancelled || s.Paid()
}

type Channel string

const (
	ChannelInPerson       Channel = "IN_PERSON"
	ChannelOnlinePreorder Channel = "ONLINE_PREORDER"
)

type OrderLine struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"customerOrderId,omitempty"`
	MenuItemID  string        `json:"menuItemId"`
	Qty         int           `json:"qty"`
	UnitPriceHT DecimalString `json:"unitPriceHT"`
	TvaPct      DecimalString `json:"tvaPct"`
	LineTotalHT DecimalString `json:"lineTotalHT"`
}

type Invoice struct {
	PdfURL *string `json:"pdfUrl,omitempty"`
}

// Order is owned by the backend; the client only reads it.
type Order struct {
	ID           string        `json:"id"`
	Status       OrderStatus   `json:"status"`
	CustomerID   string        `json:"customerId,omitempty"`
	FranchiseeID string        `json:"franchiseeId,omitempty"`
	TotalHT      DecimalString `json:"totalHT"`
	TotalTVA     DecimalString `json:"totalTVA"`
	TotalTTC     DecimalString `json:"totalTTC"`
	PlacedAt     time.Time     `json:"placedAt"`
	Lines        []OrderLine   `json:"lines,omitempty"`
	Invoice      *Invoice      `json:"invoice,omitempty"`
}

// Scope is the outlet an order is placed against.
type Scope struct {
	FranchiseeID string
	TruckID      string
	WarehouseID  string
}

type Paginated[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}
