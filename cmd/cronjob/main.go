package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fxdesk-ledger/internal/bootstrap"
	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/jobs"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'cascade-inventory', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting FX desk cronjob runner...", "log_level", cfg.Log.Level)

	backend, err := bootstrap.OpenStore(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer backend.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(bootstrap.NewServices(cfg, backend.Store), cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(jobRunner, *runOnce); err != nil {
			backend.Close()
			log.Fatalf("Job %s failed: %v", *runOnce, err)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) error {
	switch jobName {
	case "cascade-inventory":
		return jobRunner.CascadeInventory()
	case "all-nightly":
		return jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - cascade-inventory\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
	return nil
}
