// Package grpc exposes the standard gRPC health service so load balancers and
// orchestrators can probe the store without speaking HTTP.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/appser/appser-store/pkg/logger"
	googlegrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "appser.Store"

// Checker returns an empty reason when the store can take traffic.
type Checker interface {
	Check(ctx context.Context) string
}

type Server struct {
	grpcServer *googlegrpc.Server
	health     *health.Server
	checker    Checker
	interval   time.Duration
	log        *logger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewServer(checker Checker, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s := &Server{
		grpcServer: googlegrpc.NewServer(),
		health:     health.NewServer(),
		checker:    checker,
		interval:   interval,
		log:        logger.GetLogger().WithContext("component", "grpc_health"),
		stopCh:     make(chan struct{}),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)
	return s
}

// Start listens on port and serves until Stop.
func (s *Server) Start(port string) error {
	if port == "" || port[0] != ':' {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.Refresh(context.Background())
	go s.watch()

	s.log.Info("grpc_health_listening", "addr", lis.Addr().String())
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Refresh runs the checker once and publishes the result.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if reason := s.checker.Check(ctx); reason != "" {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.log.Warn("grpc_health_not_serving", "reason", reason)
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

func (s *Server) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Refresh(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	})
}
