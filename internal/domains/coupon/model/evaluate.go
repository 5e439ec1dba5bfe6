package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EvaluationContext carries everything the discount evaluation needs about
// the requesting user and cart. Evaluation has no side effects; committing a
// usage row happens with order creation.
type EvaluationContext struct {
	Subtotal        decimal.Decimal
	Now             time.Time
	PriorOrderCount int // user's prior non-cancelled orders
	UserUsageCount  int // user's CouponUsage rows for this coupon
}

// Evaluate runs the validity checks in order (first failing check wins) and
// returns the computed discount amount, rounded to 2 decimal places.
func (c *Coupon) Evaluate(ec EvaluationContext) (decimal.Decimal, error) {
	// 1. Active + validity window
	if !c.Active {
		return decimal.Zero, NewCouponError(ErrCodeCouponInactive, "Coupon is not active", ErrCouponInactive)
	}
	if c.ValidFrom != nil && ec.Now.Before(*c.ValidFrom) {
		return decimal.Zero, NewCouponError(ErrCodeCouponNotStarted, "Coupon is not valid yet", ErrCouponNotStarted)
	}
	if c.ValidUntil != nil && ec.Now.After(*c.ValidUntil) {
		return decimal.Zero, NewCouponError(ErrCodeCouponExpired, "Coupon has expired", ErrCouponExpired)
	}

	// 2. Day / weekend restriction
	if !c.MatchesDay(ec.Now) {
		return decimal.Zero, NewCouponError(ErrCodeCouponWrongDay, "Coupon is not valid today", ErrCouponWrongDay)
	}

	// 3. Minimum amount
	if c.MinAmount != nil && ec.Subtotal.LessThan(*c.MinAmount) {
		return decimal.Zero, NewCouponError(
			ErrCodeCouponMinAmount,
			fmt.Sprintf("Order amount must be at least %s", c.MinAmount.StringFixed(2)),
			ErrCouponMinAmount,
		)
	}

	// 4. First purchase restriction
	if c.TriggerType == TriggerTypeFirstPurchase && ec.PriorOrderCount > 0 {
		return decimal.Zero, NewCouponError(ErrCodeCouponFirstOnly, "Coupon is valid for first purchase only", ErrCouponFirstOnly)
	}

	// 5. Per-user usage limit
	if ec.UserUsageCount >= c.MaxUsesPerUser {
		return decimal.Zero, NewCouponError(ErrCodeCouponExhausted, "Coupon usage limit reached", ErrCouponExhausted)
	}

	return c.ComputeDiscount(ec.Subtotal), nil
}

// ComputeDiscount applies the discount formula without validity checks.
// Percentage discounts are capped at MaxDiscount; fixed discounts never
// exceed the subtotal. Result is rounded half-up to 2 decimal places.
func (c *Coupon) ComputeDiscount(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = c.Value
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	default:
		return decimal.Zero
	}

	return discount.Round(2)
}
