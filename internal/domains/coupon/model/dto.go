package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// VALIDATE COUPON (DRY RUN)
// =====================================================
type ValidateCouponRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal" binding:"required"`
}

func (req ValidateCouponRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Code, validation.Required, validation.Length(1, 64)),
	)
}

type ValidateCouponResponse struct {
	Valid          bool             `json:"valid"`
	Code           string           `json:"code"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	Reason         *string          `json:"reason,omitempty"`
}

// =====================================================
// COUPON LISTINGS
// =====================================================
type CouponSummary struct {
	ID            uuid.UUID        `json:"id"`
	Code          string           `json:"code"`
	Description   *string          `json:"description,omitempty"`
	DiscountType  string           `json:"discount_type"`
	Value         decimal.Decimal  `json:"value"`
	MinAmount     *decimal.Decimal `json:"min_amount,omitempty"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	ValidUntil    *time.Time       `json:"valid_until,omitempty"`
	IsWeekendOnly bool             `json:"is_weekend_only"`
	DayOfWeek     *int             `json:"day_of_week,omitempty"`
}

// AvailableCoupon annotates a coupon with per-user availability flags.
type AvailableCoupon struct {
	CouponSummary
	Exhausted      bool `json:"exhausted"`
	AvailableToday bool `json:"available_today"`
}

// =====================================================
// USAGE HISTORY
// =====================================================
type UsageHistoryItem struct {
	CouponID       uuid.UUID       `json:"coupon_id"`
	Code           string          `json:"code"`
	OrderID        uuid.UUID       `json:"order_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}

// =====================================================
// ADMIN: CREATE / UPDATE COUPON
// =====================================================
type CreateCouponRequest struct {
	Code           string           `json:"code" binding:"required"`
	Description    *string          `json:"description,omitempty"`
	DiscountType   string           `json:"discount_type" binding:"required"`
	Value          decimal.Decimal  `json:"value" binding:"required"`
	MinAmount      *decimal.Decimal `json:"min_amount,omitempty"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	DayOfWeek      *int             `json:"day_of_week,omitempty"`
	IsWeekendOnly  bool             `json:"is_weekend_only"`
	TriggerType    string           `json:"trigger_type"`
	MaxUsesPerUser int              `json:"max_uses_per_user"`
	ValidFrom      *time.Time       `json:"valid_from,omitempty"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
}

func (req CreateCouponRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Code, validation.Required, validation.Length(1, 64)),
		validation.Field(&req.DiscountType, validation.Required, validation.In(
			DiscountTypePercentage,
			DiscountTypeFixed,
		)),
		validation.Field(&req.TriggerType, validation.In(
			TriggerTypeManual,
			TriggerTypeFirstPurchase,
		)),
		validation.Field(&req.DayOfWeek, validation.Min(0), validation.Max(6)),
		validation.Field(&req.MaxUsesPerUser, validation.Min(0)),
	)
}

type UpdateCouponRequest struct {
	Description    *string          `json:"description,omitempty"`
	Value          *decimal.Decimal `json:"value,omitempty"`
	MinAmount      *decimal.Decimal `json:"min_amount,omitempty"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	MaxUsesPerUser *int             `json:"max_uses_per_user,omitempty"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Active         *bool            `json:"active,omitempty"`
}
