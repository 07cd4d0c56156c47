package jobs

import (
	"fmt"
	"time"

	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/service"
	"fxdesk-ledger/internal/utils"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *service.Services
	config   *config.Config
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *service.Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      utils.Today,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = &panicError{job: jobName, value: r}
		}
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	if err = jobFunc(); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

type panicError struct {
	job   string
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.job, e.value)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() error {
	return jr.CascadeInventory()
}
