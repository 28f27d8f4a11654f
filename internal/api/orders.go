package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

type CreateOrderRequest struct {
	CustomerID        string         `json:"customerId"`
	FranchiseeID      string         `json:"franchiseeId"`
	TruckID           string         `json:"truckId,omitempty"`
	WarehouseID       string         `json:"warehouseId,omitempty"`
	Channel           domain.Channel `json:"channel,omitempty"`
	ScheduledPickupAt *time.Time     `json:"scheduledPickupAt,omitempty"`
	TotalHT           float64        `json:"totalHT"`
	TotalTVA          float64        `json:"totalTVA"`
	TotalTTC          float64        `json:"totalTTC"`
}

type CreateOrderLineRequest struct {
	CustomerOrderID string  `json:"customerOrderId"`
	MenuItemID      string  `json:"menuItemId"`
	Qty             int     `json:"qty"`
	UnitPriceHT     float64 `json:"unitPriceHT"`
	TvaPct          float64 `json:"tvaPct"`
	LineTotalHT     float64 `json:"lineTotalHT"`
}

type ListOrdersParams struct {
	Status   domain.OrderStatus
	Page     int
	PageSize int
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, "create_order", http.MethodPost, "/customer-orders", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) AddOrderLine(ctx context.Context, req CreateOrderLineRequest) (*domain.OrderLine, error) {
	var line domain.OrderLine
	if err := c.do(ctx, "add_order_line", http.MethodPost, "/customer-order-lines", nil, req, &line); err != nil {
		return nil, err
	}
	return &line, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var order domain.Order
	body := map[string]domain.OrderStatus{"status": status}
	if err := c.do(ctx, "update_order_status", http.MethodPut, "/customer-orders/"+pathID(orderID)+"/status", nil, body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, "get_order", http.MethodGet, "/customer-orders/"+pathID(orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListMyOrders lists the orders of the authenticated customer.
func (c *Client) ListMyOrders(ctx context.Context, p ListOrdersParams) (*domain.Paginated[domain.Order], error) {
	q := url.Values{"mine": {"true"}}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	setPage(q, p.Page, p.PageSize)

	var page domain.Paginated[domain.Order]
	if err := c.do(ctx, "list_orders", http.MethodGet, "/customer-orders", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func setPage(q url.Values, page, pageSize int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
}
