package compliance

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"complyguard-lab/internal/infrastructure/cache"
	"complyguard-lab/internal/infrastructure/database"
)

const serviceName = "compliance.v1.ComplianceService"

// RegisterHealthServer registers the gRPC health check service and keeps
// its status in sync with the database and cache backends
func RegisterHealthServer(grpcServer *grpc.Server, db *database.PostgresDB, cache *cache.RedisCache) {
	healthServer := health.NewServer()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		ctx := context.Background()
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			status := grpc_health_v1.HealthCheckResponse_SERVING

			if db != nil {
				if err := db.Pool().Ping(ctx); err != nil {
					status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
				}
			}
			if cache != nil {
				if _, err := cache.Client().Ping(ctx).Result(); err != nil {
					status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
				}
			}

			healthServer.SetServingStatus("", status)
			healthServer.SetServingStatus(serviceName, status)
		}
	}()

	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
}
