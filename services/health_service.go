// cartservice/services/health_service.go

package services

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/hipstershop/cartservice/cartstore"
)

// HealthCheckService implements the gRPC health check backed by the cart
// store's backend ping.
type HealthCheckService struct {
	store cartstore.ICartStore
	healthpb.UnimplementedHealthServer
}

// NewHealthCheckService constructor.
func NewHealthCheckService(store cartstore.ICartStore) *HealthCheckService {
	return &HealthCheckService{store: store}
}

// Check RPC: reports SERVING while the backend answers pings.
func (h *HealthCheckService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if h.store.Ping(ctx) {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
}

// Watch RPC is not implemented; clients poll Check.
func (h *HealthCheckService) Watch(req *healthpb.HealthCheckRequest, stream healthpb.Health_WatchServer) error {
	return status.Error(codes.Unimplemented, "health watch is not implemented")
}
