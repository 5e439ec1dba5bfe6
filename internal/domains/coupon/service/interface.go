package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"foodorder-backend/internal/domains/coupon/model"
)

// OrderCounter reports how many non-cancelled orders a user has. Implemented
// by the order repository; injected here to keep the dependency one-way.
type OrderCounter interface {
	CountNonCancelledByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// CouponService is the discount engine's public surface.
type CouponService interface {
	// Validate runs the evaluation as a dry run, with no side effects.
	Validate(ctx context.Context, userID uuid.UUID, req model.ValidateCouponRequest) (*model.ValidateCouponResponse, error)

	// EvaluateForOrder resolves a code and computes the discount for a cart.
	// The returned coupon is what order creation commits usage against.
	EvaluateForOrder(ctx context.Context, userID uuid.UUID, code string, subtotal decimal.Decimal, now time.Time) (*model.Coupon, decimal.Decimal, error)

	ListActive(ctx context.Context) ([]model.CouponSummary, error)
	ListAvailable(ctx context.Context, userID uuid.UUID) ([]model.AvailableCoupon, error)
	UsageHistory(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.UsageHistoryItem, int, error)

	CreateCoupon(ctx context.Context, req model.CreateCouponRequest) (*model.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, req model.UpdateCouponRequest) (*model.Coupon, error)
	DeactivateCoupon(ctx context.Context, id uuid.UUID) error
}
