package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the service reported next to the overall ("") status.
const ServiceName = "users.v1.Users"

// HealthServer exposes grpc.health.v1.Health so load balancers and
// orchestrators can probe the process without speaking HTTP.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
}

// NewHealthServer creates a gRPC server with the health and reflection
// services registered. Both the overall status and ServiceName start as
// SERVING.
func NewHealthServer(opts ...grpc.ServerOption) *HealthServer {
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &HealthServer{srv: srv, health: hs}
}

// ListenAndServe listens on addr and blocks serving gRPC requests.
func (s *HealthServer) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return s.Serve(lis)
}

// Serve blocks serving gRPC requests on lis.
func (s *HealthServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// SetServing flips the status of ServiceName.
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Stop marks every service NOT_SERVING, then drains in-flight RPCs.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
