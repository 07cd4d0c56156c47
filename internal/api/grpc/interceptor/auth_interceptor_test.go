package interceptor

import (
	"context"
	"testing"
	"time"

	"fxdesk-ledger/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestAuthInterceptor_Unary(t *testing.T) {
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	unary := NewAuthInterceptor(tm).Unary()

	var seenStaff string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		if v := md.Get("staff"); len(v) > 0 {
			seenStaff = v[0]
		}
		return "ok", nil
	}
	withToken := func(token string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token, "staff", "spoofed"))
	}

	t.Run("Public method", func(t *testing.T) {
		resp, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("Missing token", func(t *testing.T) {
		_, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/fxdesk.Ledger/Anything"}, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Staff token on supervisor method", func(t *testing.T) {
		token, err := tm.GenerateStaffToken("kim", []string{security.RoleStaff})
		require.NoError(t, err)
		_, err = unary(withToken(token), nil, &grpc.UnaryServerInfo{FullMethod: "/fxdesk.Ledger/Anything"}, handler)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("Supervisor token overrides staff header", func(t *testing.T) {
		token, err := tm.GenerateStaffToken("ola", []string{security.RoleSupervisor})
		require.NoError(t, err)
		_, err = unary(withToken(token), nil, &grpc.UnaryServerInfo{FullMethod: "/fxdesk.Ledger/Anything"}, handler)
		require.NoError(t, err)
		assert.Equal(t, "ola", seenStaff)
	})
}
