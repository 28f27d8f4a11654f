package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/ordering"
	"github.com/DRIVN-COOK/front-office/internal/payment"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", logger.Err(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps errors from the storefront packages to HTTP responses.
func handleError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		precondition *ordering.PreconditionError
		partial      *ordering.PartialOrderError
		apiErr       *api.APIError
	)

	switch {
	case errors.As(err, &precondition):
		respondError(w, http.StatusUnprocessableEntity, "precondition_failed", precondition.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusUnprocessableEntity, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrItemUnavailable):
		respondError(w, http.StatusUnprocessableEntity, "item_unavailable", err.Error())
	case errors.Is(err, payment.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, payment.ErrAttemptFailed):
		respondError(w, http.StatusConflict, "attempt_failed", err.Error())
	case errors.Is(err, payment.ErrDisposed):
		respondError(w, http.StatusGone, "checkout_disposed", err.Error())
	case errors.As(err, &partial):
		status := http.StatusBadGateway
		if errors.As(partial.Err, &apiErr) && apiErr.Status >= 400 {
			status = apiErr.Status
		}
		log.WarnContext(r.Context(), "order partially saved", slog.String(logger.OrderID, partial.OrderID), logger.Err(err))
		respondJSON(w, status, ErrorResponse{
			Error:   partial.Error(),
			Code:    "partial_order",
			Details: partial.OrderID,
		})
	case errors.As(err, &apiErr):
		code := "backend_error"
		if apiErr.Status == http.StatusServiceUnavailable {
			code = "service_unavailable"
		} else if apiErr.Status == http.StatusNotFound {
			code = "not_found"
		}
		respondJSON(w, apiErr.Status, ErrorResponse{
			Error:   apiErr.Message,
			Code:    code,
			Details: apiErr.Code,
		})
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timeout")
	default:
		log.ErrorContext(r.Context(), "request failed", logger.Err(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
