package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/pricing"
)

type CartHandler struct {
	store   *cart.Store
	menu    MenuAPI
	timeout time.Duration
	log     *slog.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

func NewCartHandler(store *cart.Store, menu MenuAPI, timeout time.Duration, log *slog.Logger) *CartHandler {
	return &CartHandler{
		store:   store,
		menu:    menu,
		timeout: timeout,
		log:     logger.OrDefault(log),
		closing: make(chan struct{}),
	}
}

// CloseStreams ends every open event stream. Register it with
// http.Server.RegisterOnShutdown so streams do not hold shutdown up.
func (h *CartHandler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.closing) })
}

type AddItemRequestDTO struct {
	ItemID string `json:"itemId"`
	Qty    int    `json:"qty"`
}

type UpdateQuantityRequestDTO struct {
	Qty float64 `json:"qty"`
}

type TotalsDTO struct {
	LineHT  float64 `json:"lineHT"`
	LineTVA float64 `json:"lineTVA"`
	LineTTC float64 `json:"lineTTC"`
}

type CartResponseDTO struct {
	Lines  []domain.CartLine `json:"lines"`
	Count  int               `json:"count"`
	Totals TotalsDTO         `json:"totals"`
}

func newCartResponse(lines []domain.CartLine) CartResponseDTO {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	t := pricing.Cart(lines)
	return CartResponseDTO{
		Lines: lines,
		Count: pricing.ItemCount(lines),
		Totals: TotalsDTO{
			LineHT:  pricing.RoundMoney(t.LineHT),
			LineTVA: pricing.RoundMoney(t.LineTVA),
			LineTTC: pricing.RoundMoney(t.LineTTC),
		},
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newCartResponse(h.store.Lines()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "itemId is required")
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	item, err := h.menu.GetMenuItem(ctx, req.ItemID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.store.Add(ctx, *item, req.Qty); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(h.store.Lines()))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.store.SetQty(ctx, chi.URLParam(r, "item_id"), req.Qty); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(h.store.Lines()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Remove(ctx, chi.URLParam(r, "item_id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(h.store.Lines()))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Clear(ctx); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Events streams a cart snapshot on connect and after every change as
// server-sent events.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	updates, stop := h.store.Subscribe()
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(lines []domain.CartLine) bool {
		data, err := json.Marshal(newCartResponse(lines))
		if err != nil {
			h.log.ErrorContext(r.Context(), "encode cart event failed", logger.Err(err))
			return false
		}
		if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(h.store.Lines()) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.closing:
			return
		case lines, ok := <-updates:
			if !ok || !send(lines) {
				return
			}
		}
	}
}
