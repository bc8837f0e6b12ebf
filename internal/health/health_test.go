package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func status(t *testing.T, s *Service, name string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: name})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestCheckOnce(t *testing.T) {
	var storageUp atomic.Bool

	s := New(time.Minute,
		Check{Name: "database", Probe: func(context.Context) error { return nil }},
		Check{Name: "storage", Probe: func(context.Context) error {
			if storageUp.Load() {
				return nil
			}
			return errors.New("bucket unreachable")
		}},
	)

	assert.False(t, s.CheckOnce(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, s, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, s, "database"))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, s, "storage"))

	storageUp.Store(true)
	assert.True(t, s.CheckOnce(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, s, ""))
}

func TestRunStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	s := New(10*time.Millisecond, Check{Name: "database", Probe: func(context.Context) error {
		calls.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, s, ""))
}

func TestGateway(t *testing.T) {
	healthy := atomic.Bool{}
	s := New(time.Minute, Check{Name: "database", Probe: func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("down")
	}})

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	s.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	gw := Gateway(conn)

	s.CheckOnce(context.Background())
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	healthy.Store(true)
	s.CheckOnce(context.Background())
	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVING")
}
