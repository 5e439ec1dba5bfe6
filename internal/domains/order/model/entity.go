package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// ORDER STATUS CONSTANTS
// =====================================================
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusPreparing  = "preparing"
	OrderStatusReady      = "ready"
	OrderStatusDelivering = "delivering"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// =====================================================
// PAYMENT METHOD CONSTANTS
// =====================================================
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

// IsValidPaymentMethod checks a payment method string
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}

// IsValidOrderStatus checks an order status string
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivering, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// =====================================================
// ENTITY: Order
// =====================================================
type Order struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	CouponID      *uuid.UUID `json:"coupon_id,omitempty"`

	// Pricing
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`

	// Address snapshot, frozen at checkout
	Street     string  `json:"street"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Reference  *string `json:"reference,omitempty"`

	// Notes
	CustomerNote *string `json:"customer_note,omitempty"`
	AdminNote    *string `json:"admin_note,omitempty"`

	// Delivery tracking
	DeliveryPersonID *uuid.UUID `json:"delivery_person_id,omitempty"`
	ReadyAt          *time.Time `json:"ready_at,omitempty"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt       *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`

	// Timestamps
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	Version     int        `json:"version"`
}

// CanBeCancelled checks if order can be cancelled by the customer
// Business rule: only pending/confirmed orders can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// IsTerminal reports whether no further transition is possible
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

// IsClaimed reports whether a delivery person holds this order
func (o *Order) IsClaimed() bool {
	return o.DeliveryPersonID != nil
}

// RequiresOnlinePayment checks if order requires payment before preparation
func (o *Order) RequiresOnlinePayment() bool {
	return o.PaymentMethod == PaymentMethodCard || o.PaymentMethod == PaymentMethodTransfer
}

// IsCash checks if order is paid on delivery
func (o *Order) IsCash() bool {
	return o.PaymentMethod == PaymentMethodCash
}

// statusRank orders the forward lifecycle; cancelled sits outside the chain.
var statusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusPreparing:  2,
	OrderStatusReady:      3,
	OrderStatusDelivering: 4,
	OrderStatusDelivered:  5,
}

// CanTransitionTo checks if order can transition to new status. Forward
// moves may skip stages (kitchen override), going backward is never allowed,
// cancellation is only reachable from pending/confirmed, and delivered and
// cancelled are terminal.
func (o *Order) CanTransitionTo(newStatus string) bool {
	if newStatus == OrderStatusCancelled {
		return o.CanBeCancelled()
	}

	from, ok := statusRank[o.Status]
	to, okNew := statusRank[newStatus]
	return ok && okNew && to > from
}

// StatusTimestamps carries the per-stage stamps a status change fills in.
// Stages that already carry a stamp keep their original value.
type StatusTimestamps struct {
	ReadyAt     *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
}

// StampsForStatus returns the timestamps a move to status implies, covering
// stages an override jumps over so the delivery columns stay consistent.
func StampsForStatus(status string, now time.Time) StatusTimestamps {
	var stamps StatusTimestamps
	rank, ok := statusRank[status]
	if !ok {
		return stamps
	}

	if rank >= statusRank[OrderStatusReady] {
		stamps.ReadyAt = &now
	}
	if rank >= statusRank[OrderStatusDelivering] {
		stamps.PickedUpAt = &now
	}
	if rank >= statusRank[OrderStatusDelivered] {
		stamps.DeliveredAt = &now
	}

	return stamps
}

// =====================================================
// ENTITY: OrderItem
// =====================================================
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Extras      ItemExtras      `json:"extras,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CalculateSubtotal computes (unit price + extras) * quantity
func (oi *OrderItem) CalculateSubtotal() decimal.Decimal {
	perUnit := oi.UnitPrice
	for _, ex := range oi.Extras {
		perUnit = perUnit.Add(ex.Price)
	}
	return perUnit.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// =====================================================
// ENTITY: OrderStatusHistory
// =====================================================
type OrderStatusHistory struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	FromStatus *string    `json:"from_status,omitempty"`
	ToStatus   string     `json:"to_status"`
	ChangedBy  *uuid.UUID `json:"changed_by,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	ChangedAt  time.Time  `json:"changed_at"`
}
