package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"foodorder-backend/internal/infrastructure/notification"
	"foodorder-backend/internal/shared"
	"foodorder-backend/pkg/logger"
)

// =====================================================
// ORDER EVENT NOTIFICATION HANDLER
// =====================================================
// Handles both status-change and order-ready tasks; the payload is the
// same shape for both.
type OrderEventHandler struct {
	notifier notification.NotificationService
}

func NewOrderEventHandler(notifier notification.NotificationService) *OrderEventHandler {
	return &OrderEventHandler{
		notifier: notifier,
	}
}

func (h *OrderEventHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.OrderEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payload will never succeed, don't retry
		return asynq.SkipRetry
	}

	messageID, err := h.notifier.NotifyOrderEvent(ctx, payload.UserID, payload.OrderID, payload.ToStatus)
	if err != nil {
		return err
	}

	logger.Info("Order event notification delivered", map[string]interface{}{
		"order_id":   payload.OrderID,
		"to_status":  payload.ToStatus,
		"message_id": messageID,
	})

	return nil
}
