package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// DISCOUNT TYPE CONSTANTS
// =====================================================
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// =====================================================
// TRIGGER TYPE CONSTANTS
// =====================================================
const (
	TriggerTypeManual        = "manual"
	TriggerTypeFirstPurchase = "first_purchase"
)

// =====================================================
// ENTITY: Coupon
// =====================================================
type Coupon struct {
	ID             uuid.UUID        `json:"id"`
	Code           string           `json:"code"`
	Description    *string          `json:"description,omitempty"`
	DiscountType   string           `json:"discount_type"`
	Value          decimal.Decimal  `json:"value"`
	MinAmount      *decimal.Decimal `json:"min_amount,omitempty"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	DayOfWeek      *int             `json:"day_of_week,omitempty"` // 0=Sunday .. 6=Saturday
	IsWeekendOnly  bool             `json:"is_weekend_only"`
	TriggerType    string           `json:"trigger_type"`
	MaxUsesPerUser int              `json:"max_uses_per_user"`
	ValidFrom      *time.Time       `json:"valid_from,omitempty"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Active         bool             `json:"active"`
	CurrentUses    int              `json:"current_uses"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// =====================================================
// ENTITY: CouponUsage
// =====================================================
// One row per (coupon, user, order) application. Row existence is the source
// of truth for "already used".
type CouponUsage struct {
	ID             uuid.UUID       `json:"id"`
	CouponID       uuid.UUID       `json:"coupon_id"`
	UserID         uuid.UUID       `json:"user_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}

// IsWithinValidity checks the date window. Open bounds are allowed.
func (c *Coupon) IsWithinValidity(now time.Time) bool {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}

// MatchesDay checks the day-of-week / weekend restriction, if any.
func (c *Coupon) MatchesDay(now time.Time) bool {
	if c.DayOfWeek != nil && int(now.Weekday()) != *c.DayOfWeek {
		return false
	}
	if c.IsWeekendOnly {
		wd := now.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			return false
		}
	}
	return true
}

// IsExhaustedFor reports whether the user has no uses left.
func (c *Coupon) IsExhaustedFor(userUsageCount int) bool {
	return userUsageCount >= c.MaxUsesPerUser
}
