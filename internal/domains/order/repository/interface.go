package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"foodorder-backend/internal/domains/order/model"
)

// OrderRepository is the data access contract for orders.
type OrderRepository interface {
	// Transaction management
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// Create
	CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// Read
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	GetOrderByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	CountOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int, error)
	ListOrdersByUserID(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]model.Order, int, error)
	ListAllOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int, error)

	// CountNonCancelledByUser feeds first-purchase coupon checks.
	CountNonCancelledByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// Status updates, all optimistic on version. Stamps only fill delivery
	// timestamps that are still NULL.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, version int, adminNote *string, stamps model.StatusTimestamps) error
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason *string, version int) error

	// ConfirmPaidOrder advances a pending order to confirmed after a payment
	// capture. Orders the kitchen already moved along match nothing.
	ConfirmPaidOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// ConfirmDelivery closes a delivering order from the customer side.
	// Returns zero rows as model.ErrInvalidTransition via RowsAffected.
	ConfirmDelivery(ctx context.Context, orderID, userID uuid.UUID) error

	// Stale sweep. CancelStalePending is conditional on status and age, so
	// repeated sweeps and already-progressed orders are no-ops.
	FindStalePendingIDs(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error)
	CancelStalePending(ctx context.Context, orderID uuid.UUID, olderThan time.Time) (bool, error)

	// Status history
	CreateOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error
	CreateOrderStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderStatusHistory) error
	GetOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
}
