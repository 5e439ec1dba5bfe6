package main

import (
	"os"

	"foodorder-backend/internal/config"
	"foodorder-backend/internal/infrastructure/queue"
	"foodorder-backend/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler for lifecycle management.
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler creates and starts the cron scheduler.
func setupScheduler(cfg *Config, jobConfig config.JobConfig) *asynqScheduler {
	scheduler := queue.NewScheduler(cfg.RedisAddr, jobConfig)

	if err := scheduler.RegisterJobs(); err != nil {
		logger.Error("Failed to register scheduled jobs", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("Scheduler starting", nil)
		if err := scheduler.Start(); err != nil {
			logger.Error("Scheduler failed", err)
			os.Exit(1)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

// Shutdown stops the scheduler.
func (s *asynqScheduler) Shutdown() {
	s.Scheduler.Shutdown()
}
