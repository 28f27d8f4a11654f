package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

type ListMenuParams struct {
	Page     int
	PageSize int
	Active   *bool
}

func (c *Client) ListMenuItems(ctx context.Context, p ListMenuParams) (*domain.Paginated[domain.MenuItem], error) {
	q := url.Values{}
	setPage(q, p.Page, p.PageSize)
	if p.Active != nil {
		q.Set("active", strconv.FormatBool(*p.Active))
	}

	var page domain.Paginated[domain.MenuItem]
	if err := c.do(ctx, "list_menu_items", http.MethodGet, "/menu-items", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := c.do(ctx, "get_menu_item", http.MethodGet, "/menu-items/"+pathID(id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
