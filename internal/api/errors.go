package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrInvalidSession = errors.New("checkout session response has neither url nor clientSecret and sessionId")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func unavailableError() *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Message: "backend unavailable",
		Code:    "CIRCUIT_OPEN",
	}
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
	Code    string          `json:"code"`
}

// newAPIError extracts a message from the body: "message" first, then
// "error", else a generic text.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}

	var b errorBody
	if json.Unmarshal(body, &b) == nil {
		e.Code = b.Code
		if msg := rawText(b.Message); msg != "" {
			e.Message = msg
		} else if msg := rawText(b.Error); msg != "" {
			e.Message = msg
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return e
}

// rawText accepts a string or a list of strings (validation errors).
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.TrimSpace(strings.Join(list, "; "))
	}
	return ""
}
