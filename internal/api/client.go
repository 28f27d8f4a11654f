// Package api is the HTTP client for the franchise REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DRIVN-COOK/front-office/internal/circuitbreaker"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxResponse    = 4 << 20
)

var errServerStatus = errors.New("server error")

type Options struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

type response struct {
	status int
	body   []byte
}

// Client calls the backend. Every call is bounded by the configured timeout
// and goes through one circuit breaker. Nothing is retried.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := logger.OrDefault(opts.Logger)

	return &Client{
		baseURL: opts.BaseURL,
		token:   opts.AccessToken,
		timeout: timeout,
		http:    httpClient,
		breaker: circuitbreaker.New[*response]("backend", log),
		metrics: opts.Metrics,
		log:     log,
	}
}

// AccessToken is the bearer token sent with every call.
func (c *Client) AccessToken() string { return c.token }

func (c *Client) BreakerState() gobreaker.State { return c.breaker.State() }

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (*response, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("X-Request-ID", requestID(ctx))

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
		if err != nil {
			return nil, err
		}
		r := &response{status: resp.StatusCode, body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return r, errServerStatus
		}
		return r, nil
	})

	status := 0
	if res != nil {
		status = res.status
	}
	c.metrics.ObserveAPI(endpoint, status, time.Since(start))

	switch {
	case circuitbreaker.Unavailable(err):
		c.log.WarnContext(ctx, "backend call rejected by circuit breaker", slog.String(logger.Endpoint, endpoint))
		return unavailableError()
	case errors.Is(err, errServerStatus):
		return newAPIError(res.status, res.body)
	case err != nil:
		c.log.WarnContext(ctx, "backend call failed", slog.String(logger.Endpoint, endpoint), logger.Err(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	case res.status >= http.StatusBadRequest:
		return newAPIError(res.status, res.body)
	}

	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// requestID forwards the inbound gateway request id when there is one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func pathID(id string) string {
	return url.PathEscape(id)
}
