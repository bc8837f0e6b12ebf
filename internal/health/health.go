package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const DefaultInterval = 15 * time.Second

// Check проверяет одну зависимость сервиса
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Service периодически проверяет зависимости и публикует статус через gRPC health
type Service struct {
	server   *health.Server
	checks   []Check
	interval time.Duration
	timeout  time.Duration
}

func New(interval time.Duration, checks ...Check) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		server:   health.NewServer(),
		checks:   checks,
		interval: interval,
		timeout:  interval / 2,
	}
}

// Server возвращает gRPC health сервер для регистрации
func (s *Service) Server() *health.Server {
	return s.server
}

// Register регистрирует health сервис на gRPC сервере
func (s *Service) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.server)
}

// CheckOnce выполняет все проверки и обновляет статусы. Общий статус ("") SERVING только если прошли все.
func (s *Service) CheckOnce(ctx context.Context) bool {
	healthy := true
	for _, c := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.Probe(checkCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			slog.Warn("health check failed", "check", c.Name, "error", err)
		}
		s.server.SetServingStatus(c.Name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.server.SetServingStatus("", overall)
	return healthy
}

// Run проверяет зависимости с заданным интервалом до отмены ctx
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.CheckOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.server.Shutdown()
			return nil
		case <-ticker.C:
			s.CheckOnce(ctx)
		}
	}
}

// Gateway возвращает HTTP-обработчик /healthz, проксирующий запросы в gRPC health сервис
func Gateway(conn grpc.ClientConnInterface) http.Handler {
	return runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
}
