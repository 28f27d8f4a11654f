package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DRIVN-COOK/front-office/internal/domain"
)

type sessionBody struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	SessionID    string `json:"sessionId"`
	ClientSecret string `json:"clientSecret"`
}

// CreateCheckoutSession asks the backend for a payment session. The result
// is a domain.HostedSession or a domain.EmbeddedSession.
func (c *Client) CreateCheckoutSession(ctx context.Context, orderID string, mode domain.UIMode) (domain.PaymentSession, error) {
	var raw json.RawMessage
	body := map[string]domain.UIMode{"uiMode": mode}
	path := "/payments/customer-orders/" + pathID(orderID) + "/checkout-session"
	if err := c.do(ctx, "create_checkout_session", http.MethodPost, path, nil, body, &raw); err != nil {
		return nil, err
	}
	return DecodeSession(raw)
}

func (c *Client) ConfirmPayment(ctx context.Context, sessionID string) error {
	body := map[string]string{"sessionId": sessionID}
	return c.do(ctx, "confirm_payment", http.MethodPost, "/payments/confirm", nil, body, nil)
}

// DecodeSession maps a checkout-session body onto its variant. A url wins
// over embedded credentials.
func DecodeSession(data []byte) (domain.PaymentSession, error) {
	var b sessionBody
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, ErrInvalidSession
	}
	switch {
	case b.URL != "":
		return domain.HostedSession{ID: b.ID, URL: b.URL}, nil
	case b.ClientSecret != "" && b.SessionID != "":
		return domain.EmbeddedSession{SessionID: b.SessionID, ClientSecret: b.ClientSecret}, nil
	default:
		return nil, ErrInvalidSession
	}
}
