package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// NotificationService delivers customer-facing order updates. Delivery is
// best-effort: a lost notification never blocks an order.
type NotificationService interface {
	NotifyOrderEvent(ctx context.Context, userID, orderID, status string) (messageID string, err error)
}

// ================================================
// MOCK NOTIFICATION SERVICE (for development)
// ================================================

type MockNotificationService struct{}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (s *MockNotificationService) NotifyOrderEvent(ctx context.Context, userID, orderID, status string) (string, error) {
	log.Info().
		Str("user_id", userID).
		Str("order_id", orderID).
		Str("status", status).
		Msg("[MOCK] Order notification sent successfully")

	return fmt.Sprintf("mock-notify-%d", time.Now().Unix()), nil
}
