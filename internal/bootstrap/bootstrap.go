// Package bootstrap opens the configured record store and wires the ledger
// services for the binaries under cmd/.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/repository"
	"fxdesk-ledger/internal/repository/memory"
	"fxdesk-ledger/internal/repository/postgres"
	"fxdesk-ledger/internal/repository/workbook"
	"fxdesk-ledger/internal/service"

	_ "github.com/lib/pq"
)

// Backend is an opened record store.
type Backend struct {
	Store *repository.Store
	// Ping reports whether the store is reachable.
	Ping  func(ctx context.Context) error
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore opens the backend named by cfg.Storage.Type.
func OpenStore(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Type {
	case "postgres":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info("Database connection established")
		return &Backend{Store: postgres.NewStore(db), Ping: db.PingContext, close: db.Close}, nil

	case "workbook":
		logger.Info("Opening workbook", "path", cfg.Storage.WorkbookPath)
		book, err := workbook.Open(cfg.Storage.WorkbookPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		return &Backend{
			Store: workbook.NewStore(book),
			Ping:  func(context.Context) error { return nil },
			close: book.Close,
		}, nil

	case "memory":
		logger.Warn("Using in-memory store; records are lost on exit")
		return &Backend{Store: memory.NewStore(), Ping: func(context.Context) error { return nil }}, nil
	}
	return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
}

// NewServices wires the ledger services and the alert channel.
func NewServices(cfg *config.Config, store *repository.Store) *service.Services {
	var alerts service.AlertService
	if cfg.Alerts.SendGridAPIKey != "" && cfg.Alerts.SupervisorTo != "" {
		logger.Info("Desk alerts go to SendGrid", "to", cfg.Alerts.SupervisorTo)
		alerts = service.NewSendGridAlertService(cfg.Alerts.SendGridAPIKey, cfg.Alerts.FromEmail,
			cfg.Alerts.FromName, cfg.Alerts.SupervisorTo)
	} else {
		logger.Info("SendGrid not configured; desk alerts are logged only")
		alerts = service.NewLogAlertService()
	}
	return service.New(store, service.OptionsFromConfig(cfg.Ledger), alerts)
}
