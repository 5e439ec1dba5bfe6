package main

import (
	"context"
	"os"

	"github.com/hibiken/asynq"

	"foodorder-backend/internal/shared"
	"foodorder-backend/pkg/logger"
)

// asynqServer wraps asynq.Server for lifecycle management.
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates and starts the Asynq server.
func setupAsynqServer(cfg *Config, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Queues: map[string]int{
				shared.QueueOrders:        10,
				shared.QueueNotifications: 5,
			},
			Concurrency: cfg.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed: "+task.Type(), err)
			}),
		},
	)

	go func() {
		logger.Info("Worker starting", map[string]interface{}{
			"concurrency": cfg.Concurrency,
		})
		if err := srv.Run(mux); err != nil {
			logger.Error("Worker failed", err)
			os.Exit(1)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for in-flight tasks before stopping.
func (s *asynqServer) Shutdown() {
	logger.Info("Worker shutting down, draining tasks", nil)
	s.Server.Shutdown()
}
