package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeCouponNotFound   = "CPN001"
	ErrCodeCouponInactive   = "CPN002"
	ErrCodeCouponNotStarted = "CPN003"
	ErrCodeCouponExpired    = "CPN004"
	ErrCodeCouponWrongDay   = "CPN005"
	ErrCodeCouponMinAmount  = "CPN006"
	ErrCodeCouponFirstOnly  = "CPN007"
	ErrCodeCouponExhausted  = "CPN008"
	ErrCodeCouponDuplicate  = "CPN009"
	ErrCodeCouponCodeExists = "CPN010"
	ErrCodeInvalidCoupon    = "CPN011"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponInactive   = errors.New("coupon is not active")
	ErrCouponNotStarted = errors.New("coupon is not valid yet")
	ErrCouponExpired    = errors.New("coupon has expired")
	ErrCouponWrongDay   = errors.New("coupon is not valid today")
	ErrCouponMinAmount  = errors.New("order amount below coupon minimum")
	ErrCouponFirstOnly  = errors.New("coupon is for first purchase only")
	ErrCouponExhausted  = errors.New("coupon usage limit reached for user")
	ErrCouponDuplicate  = errors.New("coupon already applied to this order")
	ErrCouponCodeExists = errors.New("coupon code already exists")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type CouponError struct {
	Code    string
	Message string
	Err     error
}

func (e *CouponError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CouponError) Unwrap() error {
	return e.Err
}

// NewCouponError creates a new CouponError
func NewCouponError(code, message string, err error) *CouponError {
	return &CouponError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
