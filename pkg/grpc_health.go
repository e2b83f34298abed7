package pkg

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer exposes the standard gRPC health service for a single named
// service. It satisfies apt.GRPCServiceRegistrar and the lifecycle Start/Stop
// contract so readiness follows the micro lifecycle.
type HealthServer struct {
	service string
	srv     *health.Server
}

func NewHealthServer(service string) *HealthServer {
	srv := health.NewServer()
	srv.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{service: service, srv: srv}
}

// RegisterGRPCService registers the health and reflection services.
func (h *HealthServer) RegisterGRPCService(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, h.srv)
	reflection.Register(server)
}

func (h *HealthServer) Start(ctx context.Context) error {
	h.srv.SetServingStatus(h.service, healthpb.HealthCheckResponse_SERVING)
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return nil
}

func (h *HealthServer) Stop(ctx context.Context) error {
	h.srv.Shutdown()
	return nil
}

// Check answers a health probe in-process, mostly for tests.
func (h *HealthServer) Check(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.srv.Check(ctx, &healthpb.HealthCheckRequest{Service: h.service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
