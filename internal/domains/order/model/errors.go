package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound        = "ORD001"
	ErrCodeOrderCannotCancel    = "ORD002"
	ErrCodeVersionMismatch      = "ORD003"
	ErrCodeInvalidTransition    = "ORD004"
	ErrCodeOrderAlreadyClaimed  = "ORD005"
	ErrCodeNotOrderOwner        = "ORD006"
	ErrCodeCartEmpty            = "ORD007"
	ErrCodeInvalidPaymentMethod = "ORD008"
	ErrCodeInvalidAddress       = "ORD009"
	ErrCodeProductUnavailable   = "ORD010"
	ErrCodeCourierRequired      = "ORD011"
	ErrCodeUnauthorized         = "ORD012"
	ErrCodeInvalidStatus        = "ORD013"
	ErrCodeInvalidOrder         = "ORD014"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderCannotCancel    = errors.New("order cannot be cancelled")
	ErrVersionMismatch      = errors.New("version mismatch - concurrent modification detected")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrOrderAlreadyClaimed  = errors.New("order already claimed by another delivery person")
	ErrNotOrderOwner        = errors.New("order is not assigned to this delivery person")
	ErrCartEmpty            = errors.New("order has no items")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidAddress       = errors.New("invalid delivery address")
	ErrProductUnavailable   = errors.New("product is unavailable")
	ErrCourierRequired      = errors.New("order has no delivery person assigned")
	ErrUnauthorized         = errors.New("unauthorized access")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidItemExtras    = errors.New("invalid item extras format")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type OrderError struct {
	Code    string
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError
func NewOrderError(code, message string, err error) *OrderError {
	return &OrderError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
