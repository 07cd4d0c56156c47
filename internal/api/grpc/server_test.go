package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"fxdesk-ledger/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T, probe Probe) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour), probe)
	srv.Refresh(context.Background())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestHealth_Serving(t *testing.T) {
	client := startServer(t, func(context.Context) error { return nil })

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: LedgerServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestHealth_ProbeFailure(t *testing.T) {
	client := startServer(t, func(context.Context) error { return errors.New("db down") })

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestGetStaffFromContext(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("staff", "kim"))
	staff, err := GetStaffFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kim", staff)

	_, err = GetStaffFromContext(context.Background())
	assert.Error(t, err)
}
