package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodePaymentNotFound     = "PAY001"
	ErrCodePaymentDeclined     = "PAY002"
	ErrCodeInvalidConfirmToken = "PAY003"
	ErrCodeAlreadyPaid         = "PAY004"
	ErrCodeNotRefundable       = "PAY005"
	ErrCodeWrongPaymentMethod  = "PAY006"
	ErrCodeInvalidPayment      = "PAY007"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentDeclined     = errors.New("payment declined by authorizer")
	ErrInvalidConfirmToken = errors.New("invalid confirmation token")
	ErrAlreadyPaid         = errors.New("order is already paid")
	ErrNotRefundable       = errors.New("payment cannot be refunded")
	ErrWrongPaymentMethod  = errors.New("operation does not match order payment method")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError
func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
