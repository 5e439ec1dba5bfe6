package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CREATE ORDER REQUEST
// =====================================================
type CreateOrderRequest struct {
	Items         []CreateOrderItem `json:"items" binding:"required"`
	Address       OrderAddressInput `json:"address" binding:"required"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	CouponCode    *string           `json:"coupon_code,omitempty"`
	CustomerNote  *string           `json:"customer_note,omitempty"`
}

type CreateOrderItem struct {
	ProductID uuid.UUID   `json:"product_id" binding:"required"`
	Quantity  int         `json:"quantity" binding:"required,min=1"`
	ExtraIDs  []uuid.UUID `json:"extra_ids,omitempty"`
}

type OrderAddressInput struct {
	Street     string  `json:"street" binding:"required"`
	City       string  `json:"city" binding:"required"`
	PostalCode string  `json:"postal_code" binding:"required"`
	Reference  *string `json:"reference,omitempty"`
}

// Validate validates CreateOrderRequest
func (req CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Items, validation.Required, validation.Length(1, 50)),
		validation.Field(&req.PaymentMethod, validation.Required, validation.In(
			PaymentMethodCash,
			PaymentMethodCard,
			PaymentMethodTransfer,
		)),
		validation.Field(&req.Address, validation.Required),
		validation.Field(&req.CustomerNote, validation.Length(0, 500)),
	)
}

// Validate validates OrderAddressInput
func (a OrderAddressInput) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Street, validation.Required, validation.Length(3, 200)),
		validation.Field(&a.City, validation.Required, validation.Length(2, 100)),
		validation.Field(&a.PostalCode, validation.Required, validation.Length(3, 20)),
	)
}

// Validate validates CreateOrderItem
func (i CreateOrderItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

// =====================================================
// CREATE ORDER RESPONSE
// =====================================================
type CreateOrderResponse struct {
	OrderID        uuid.UUID       `json:"order_id"`
	Status         string          `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	// ConfirmationURL is set for transfer orders only
	ConfirmationURL *string `json:"confirmation_url,omitempty"`
}

// =====================================================
// ORDER DETAIL RESPONSE
// =====================================================
type OrderDetailResponse struct {
	ID             uuid.UUID            `json:"id"`
	Status         string               `json:"status"`
	PaymentMethod  string               `json:"payment_method"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	DeliveryFee    decimal.Decimal      `json:"delivery_fee"`
	Tax            decimal.Decimal      `json:"tax"`
	Total          decimal.Decimal      `json:"total"`
	Items          []OrderItemResponse  `json:"items"`
	Address        OrderAddressResponse `json:"address"`
	Delivery       DeliveryState        `json:"delivery"`
	CustomerNote   *string              `json:"customer_note,omitempty"`
	AdminNote      *string              `json:"admin_note,omitempty"`
	StatusHistory  []StatusHistoryItem  `json:"status_history,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	CancelledAt    *time.Time           `json:"cancelled_at,omitempty"`
	Version        int                  `json:"version"`
}

type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Extras      ItemExtras      `json:"extras,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderAddressResponse struct {
	Street     string  `json:"street"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Reference  *string `json:"reference,omitempty"`
}

type StatusHistoryItem struct {
	FromStatus *string    `json:"from_status,omitempty"`
	ToStatus   string     `json:"to_status"`
	ChangedBy  *uuid.UUID `json:"changed_by,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	ChangedAt  time.Time  `json:"changed_at"`
}

// =====================================================
// LIST ORDERS REQUEST
// =====================================================
type ListOrdersRequest struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// Validate normalizes pagination and checks the status filter.
func (req *ListOrdersRequest) Validate() error {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	if req.Status != "" && !IsValidOrderStatus(req.Status) {
		return ErrInvalidStatus
	}

	return nil
}

// =====================================================
// ORDER SUMMARY (list views)
// =====================================================
type OrderSummaryResponse struct {
	ID            uuid.UUID       `json:"id"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	ItemsCount    int             `json:"items_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

// =====================================================
// CANCEL ORDER REQUEST
// =====================================================
type CancelOrderRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// Validate validates CancelOrderRequest
func (req CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Reason, validation.Length(0, 500)),
	)
}

// =====================================================
// UPDATE ORDER STATUS REQUEST (Admin)
// =====================================================
type UpdateOrderStatusRequest struct {
	Status    string  `json:"status" binding:"required"`
	AdminNote *string `json:"admin_note,omitempty"`
}

// Validate validates UpdateOrderStatusRequest
func (req UpdateOrderStatusRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.Required, validation.In(
			OrderStatusConfirmed,
			OrderStatusPreparing,
			OrderStatusReady,
			OrderStatusDelivering,
			OrderStatusDelivered,
			OrderStatusCancelled,
		)),
		validation.Field(&req.AdminNote, validation.Length(0, 1000)),
	)
}

// ToItemResponse converts OrderItem to OrderItemResponse
func (oi *OrderItem) ToItemResponse() OrderItemResponse {
	return OrderItemResponse{
		ID:          oi.ID,
		ProductID:   oi.ProductID,
		ProductName: oi.ProductName,
		Quantity:    oi.Quantity,
		UnitPrice:   oi.UnitPrice,
		Extras:      oi.Extras,
		Subtotal:    oi.Subtotal,
	}
}

// ToSummary converts Order to OrderSummaryResponse
func (o *Order) ToSummary(itemsCount int) OrderSummaryResponse {
	return OrderSummaryResponse{
		ID:            o.ID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		ItemsCount:    itemsCount,
		CreatedAt:     o.CreatedAt,
	}
}
