package main

import (
	"github.com/hibiken/asynq"

	orderJob "foodorder-backend/internal/domains/order/job"
	"foodorder-backend/internal/infrastructure/notification"
	"foodorder-backend/internal/shared"
	"foodorder-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	orderEvents *orderJob.OrderEventHandler
	cancelStale *orderJob.CancelStaleOrdersHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	// Real deployments would swap this for an SMS/push provider.
	notifier := notification.NewMockNotificationService()

	return &HandlerRegistry{
		orderEvents: orderJob.NewOrderEventHandler(notifier),
		cancelStale: orderJob.NewCancelStaleOrdersHandler(c.OrderService, c.Config.Jobs),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Notification tasks
	mux.HandleFunc(shared.TypeOrderStatusChanged, h.orderEvents.ProcessTask)
	mux.HandleFunc(shared.TypeOrderReady, h.orderEvents.ProcessTask)

	// Maintenance tasks
	mux.HandleFunc(shared.TypeCancelStaleOrders, h.cancelStale.ProcessTask)
}
