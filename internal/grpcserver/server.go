// Package grpcserver exposes the standard gRPC health service for the
// storefront process, driven by the backend circuit breaker.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/DRIVN-COOK/front-office/internal/logger"
)

const ServiceName = "storefront"

const defaultPollInterval = time.Second

type BreakerStater interface {
	BreakerState() gobreaker.State
}

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	breaker  BreakerStater
	interval time.Duration
	log      *slog.Logger
}

func New(breaker BreakerStater, log *slog.Logger) *Server {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(srv)

	return &Server{
		grpc:     srv,
		health:   hs,
		breaker:  breaker,
		interval: defaultPollInterval,
		log:      logger.OrDefault(log),
	}
}

// Serve blocks until ctx is done or lis fails. Health follows the breaker:
// an open breaker reports NOT_SERVING.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.syncHealth()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpc.GracefulStop()
				return
			case <-ticker.C:
				s.syncHealth()
			}
		}
	}()

	s.log.Info("gRPC server listening", slog.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) syncHealth() {
	status := healthpb.HealthCheckResponse_SERVING
	if s.breaker.BreakerState() == gobreaker.StateOpen {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
