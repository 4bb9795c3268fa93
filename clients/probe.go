package clients

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probe asks a model-serving sidecar for its gRPC health status. Anything other
// than SERVING is an error so the pipeline refuses to start.
func Probe(ctx context.Context, addr, service string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	defer conn.Close()
	return probeWith(ctx, healthpb.NewHealthClient(conn), addr, service)
}

func probeWith(ctx context.Context, hc healthpb.HealthClient, addr, service string) error {
	resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health rpc %s: %w", addr, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health %s: %s", addr, resp.GetStatus())
	}
	return nil
}
