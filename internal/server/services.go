package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HTTPService runs an *http.Server under a Lifecycle.
type HTTPService struct {
	srv *http.Server
}

// NewHTTPService wraps srv.
//
// Precondition: srv.Addr and srv.Handler must be set.
func NewHTTPService(srv *http.Server) *HTTPService {
	return &HTTPService{srv: srv}
}

// Start listens until Stop is called.
func (s *HTTPService) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server on %s: %w", s.srv.Addr, err)
	}
	return nil
}

// Stop drains in-flight requests until ctx is done.
func (s *HTTPService) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// HealthService serves the standard gRPC health protocol.
type HealthService struct {
	addr   string
	srv    *grpc.Server
	health *health.Server
}

// NewHealthService builds a gRPC server on addr exposing grpc.health.v1.Health.
// The overall status starts as NOT_SERVING until SetServing is called.
func NewHealthService(addr string) *HealthService {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthService{addr: addr, srv: srv, health: hs}
}

// SetServing flips the reported status for service name ("" is the whole server).
func (s *HealthService) SetServing(name string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(name, status)
}

// Start listens on the configured address and serves until Stop is called.
func (s *HealthService) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *HealthService) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

// Stop marks the server NOT_SERVING and stops gracefully, forcing a stop
// when ctx is done first.
func (s *HealthService) Stop(ctx context.Context) error {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.srv.Stop()
		return ctx.Err()
	}
}
