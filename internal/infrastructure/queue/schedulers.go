package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"foodorder-backend/internal/config"
	"foodorder-backend/internal/shared"
	"foodorder-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerCancelStaleOrdersJob()
}

// ================================================
// JOB: Cancel Stale Orders
// ================================================
// Pending orders that never got confirmed block nothing, but they pile up
// and hold coupon usage. The sweep itself is idempotent, so the cron
// interval only affects latency, not correctness.
func (s *Scheduler) registerCancelStaleOrdersJob() error {
	payload, err := json.Marshal(shared.CancelStaleOrdersPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeCancelStaleOrders, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.StaleOrderCron,
		task,
		asynq.Queue(shared.QueueOrders),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register CancelStaleOrders job", err)
		return err
	}

	logger.Info("Registered CancelStaleOrders job", map[string]interface{}{
		"cron":    s.jobConfig.StaleOrderCron,
		"max_age": s.jobConfig.StaleOrderAge.String(),
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
