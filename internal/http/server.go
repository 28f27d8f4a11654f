package http

import (
	"net/http"
	"time"
)

// NewServer wraps the gateway router in an http.Server. Open cart event
// streams are closed as soon as shutdown begins.
func NewServer(addr string, handler http.Handler, cart *CartHandler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if cart != nil {
		srv.RegisterOnShutdown(cart.CloseStreams)
	}
	return srv
}
