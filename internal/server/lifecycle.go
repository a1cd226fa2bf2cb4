// Package server provides application lifecycle management including
// graceful startup and shutdown with signal handling.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service represents a long-running component that can be started and stopped.
type Service interface {
	// Start runs the service. It blocks until the service is stopped or fails.
	Start() error
	// Stop gracefully stops the service, giving up when ctx is done.
	Stop(ctx context.Context) error
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func(ctx context.Context) error
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop(ctx context.Context) error { return f.StopFn(ctx) }

// Lifecycle manages the startup and shutdown of multiple services.
// Services are started in order and stopped in reverse order.
type Lifecycle struct {
	logger          *zap.Logger
	shutdownTimeout time.Duration
	services        []namedService
	mu              sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates a new Lifecycle manager. Each service gets at most
// shutdownTimeout to stop.
//
// Precondition: logger must be non-nil; shutdownTimeout > 0.
func NewLifecycle(logger *zap.Logger, shutdownTimeout time.Duration) *Lifecycle {
	return &Lifecycle{
		logger:          logger.Named("lifecycle"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Add registers a named service for lifecycle management.
// Services are started in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts all services and blocks until SIGINT or SIGTERM is received,
// ctx is cancelled, or a service fails. Services are then stopped in reverse order.
//
// Postcondition: All services are stopped when this method returns. The
// returned error is the first service failure, or nil on a clean shutdown.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	l.shutdown(services)

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) shutdown(services []namedService) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", ns.name))

		ctx, cancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
		err := ns.service.Stop(ctx)
		cancel()
		if err != nil {
			l.logger.Warn("service did not stop cleanly",
				zap.String("service", ns.name),
				zap.Error(err),
			)
		}
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped",
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}
