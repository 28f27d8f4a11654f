package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
)

type MenuAPI interface {
	ListMenuItems(ctx context.Context, p api.ListMenuParams) (*domain.Paginated[domain.MenuItem], error)
	GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)
}

type MenuHandler struct {
	menu    MenuAPI
	timeout time.Duration
	log     *slog.Logger
}

func NewMenuHandler(menu MenuAPI, timeout time.Duration, log *slog.Logger) *MenuHandler {
	return &MenuHandler{
		menu:    menu,
		timeout: timeout,
		log:     logger.OrDefault(log),
	}
}

func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, pageSize, ok := parsePage(w, r)
	if !ok {
		return
	}
	params := api.ListMenuParams{Page: page, PageSize: pageSize}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_active", "active must be true or false")
			return
		}
		params.Active = &active
	}

	items, err := h.menu.ListMenuItems(ctx, params)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.menu.GetMenuItem(ctx, chi.URLParam(r, "item_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// parsePage reads the optional page and pageSize query parameters. It
// writes a 400 and returns false when either is malformed.
func parsePage(w http.ResponseWriter, r *http.Request) (page, pageSize int, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &page}, {"pageSize", &pageSize}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_"+p.name, p.name+" must be a positive integer")
			return 0, 0, false
		}
		*p.dst = n
	}
	return page, pageSize, true
}
