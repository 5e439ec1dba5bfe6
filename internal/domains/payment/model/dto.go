package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// SUBMIT CARD PAYMENT REQUEST
// =====================================================
type SubmitCardPaymentRequest struct {
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	CardToken string    `json:"card_token" binding:"required"`
}

// Validate validates SubmitCardPaymentRequest
func (req SubmitCardPaymentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.OrderID, validation.Required),
		validation.Field(&req.CardToken, validation.Required, validation.Length(8, 200)),
	)
}

type SubmitCardPaymentResponse struct {
	PaymentID      uuid.UUID       `json:"payment_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	TransactionRef *string         `json:"transaction_ref,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

// =====================================================
// CONFIRM TRANSFER REQUEST
// =====================================================
type ConfirmTransferRequest struct {
	OrderID uuid.UUID `json:"order_id" form:"order_id" binding:"required"`
	Token   uuid.UUID `json:"token" form:"token" binding:"required"`
}

// Validate validates ConfirmTransferRequest
func (req ConfirmTransferRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.OrderID, validation.Required),
		validation.Field(&req.Token, validation.Required),
	)
}

// ConfirmTransferResponse reports the confirmation outcome. AlreadyPaid is
// true when the token had been confirmed before; repeats are success, not
// errors.
type ConfirmTransferResponse struct {
	OrderID     uuid.UUID  `json:"order_id"`
	Status      string     `json:"status"`
	AlreadyPaid bool       `json:"already_paid"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// =====================================================
// REFUND RESPONSE (Admin)
// =====================================================
type RefundResponse struct {
	PaymentID  uuid.UUID       `json:"payment_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	RefundedAt *time.Time      `json:"refunded_at,omitempty"`
}
