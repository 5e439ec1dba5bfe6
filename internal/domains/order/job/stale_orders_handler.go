package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"foodorder-backend/internal/config"
	"foodorder-backend/internal/domains/order/service"
	"foodorder-backend/internal/shared"
	"foodorder-backend/pkg/logger"
)

// =====================================================
// STALE ORDER SWEEP HANDLER
// =====================================================
type CancelStaleOrdersHandler struct {
	orderService service.OrderService
	jobConfig    config.JobConfig
}

func NewCancelStaleOrdersHandler(orderService service.OrderService, jobConfig config.JobConfig) *CancelStaleOrdersHandler {
	return &CancelStaleOrdersHandler{
		orderService: orderService,
		jobConfig:    jobConfig,
	}
}

func (h *CancelStaleOrdersHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.CancelStaleOrdersPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	maxAge := h.jobConfig.StaleOrderAge
	if payload.MaxAgeMinutes > 0 {
		maxAge = time.Duration(payload.MaxAgeMinutes) * time.Minute
	}

	cancelled, err := h.orderService.CancelStaleOrders(ctx, maxAge)
	if err != nil {
		return fmt.Errorf("cancel stale orders: %w", err)
	}

	logger.Info("Processed stale order sweep", map[string]interface{}{
		"max_age":   maxAge.String(),
		"cancelled": cancelled,
	})

	return nil
}
