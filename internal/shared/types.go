package shared

// Actor roles supplied by the identity layer.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

// Asynq task types
const (
	TypeOrderStatusChanged = "order:status_changed"
	TypeOrderReady         = "order:ready"
	TypeCancelStaleOrders  = "order:cancel_stale"
)

// Asynq queues
const (
	QueueNotifications = "notifications"
	QueueOrders        = "orders"
)

// OrderEventPayload is the fire-and-forget notification payload for order
// lifecycle events. Delivery is best-effort.
type OrderEventPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
}

// CancelStaleOrdersPayload triggers the idempotent stale-order sweep.
type CancelStaleOrdersPayload struct {
	// MaxAgeMinutes overrides the configured staleness threshold when > 0.
	MaxAgeMinutes int `json:"max_age_minutes,omitempty"`
}
