package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "fxdesk-ledger/internal/api/grpc"
	httpapi "fxdesk-ledger/internal/api/http"
	"fxdesk-ledger/internal/bootstrap"
	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/jobs"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/metrics"
	"fxdesk-ledger/internal/scheduler"
	"fxdesk-ledger/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting FX desk ledger...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Ledger configuration", "currencies", cfg.Ledger.Currencies, "storage", cfg.Storage.Type,
		"auto_update_inventory", cfg.Ledger.AutoUpdate(), "cascade_on_write", cfg.Ledger.CascadeOnWrite)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the record store
	backend, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer backend.Close()

	// Initialize Services
	services := bootstrap.NewServices(cfg, backend.Store)
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// HTTP API
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewHandler(services, tokenManager).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// gRPC health and reflection
	var grpcServer *grpcapi.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = grpcapi.NewServer(tokenManager, grpcapi.Probe(backend.Ping))
		grpcServer.Refresh(ctx)
		go func() {
			logger.Info("gRPC server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
			}
		}()
		go refreshHealth(ctx, grpcServer)
	}

	// Optional in-process scheduler
	var cronScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		cronScheduler, err = scheduler.NewScheduler(jobs.NewJobRunner(services, cfg))
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	if grpcServer != nil {
		grpcServer.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("FX desk ledger stopped. Goodbye!")
}

// refreshHealth republishes the store probe result until ctx ends.
func refreshHealth(ctx context.Context, s *grpcapi.Server) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
