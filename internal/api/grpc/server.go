// Package grpc exposes the desk's process-supervisor surface: the standard
// health service and server reflection, behind the staff token interceptor.
package grpc

import (
	"context"

	"fxdesk-ledger/internal/api/grpc/interceptor"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/security"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// LedgerServiceName is the health entry reported for the ledger itself.
const LedgerServiceName = "fxdesk.ledger"

// Probe reports whether the ledger's record store is usable.
type Probe func(ctx context.Context) error

type Server struct {
	*grpc.Server
	health *health.Server
	probe  Probe
}

func NewServer(tm security.TokenManager, probe Probe) *Server {
	auth := interceptor.NewAuthInterceptor(tm)
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(auth.Unary(), logCalls),
		grpc.StreamInterceptor(auth.Stream()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{Server: gs, health: hs, probe: probe}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Refresh runs the probe and publishes the result for the ledger and the
// overall server.
func (s *Server) Refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			logger.Warn("Health probe failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(st)
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(LedgerServiceName, st)
}

// Shutdown marks every service as not serving and stops the server gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GracefulStop()
}

// logCalls records each unary call with the authenticated staff, if any.
func logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	staff, _ := GetStaffFromContext(ctx)
	resp, err := handler(ctx, req)
	logger.Info("gRPC request", "method", info.FullMethod, "staff", staff, "error", err)
	return resp, err
}
