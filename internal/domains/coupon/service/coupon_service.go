package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"foodorder-backend/internal/domains/coupon/model"
	"foodorder-backend/internal/domains/coupon/repository"
	"foodorder-backend/pkg/logger"
)

const (
	activeCouponsCacheKey = "coupons:active"
	activeCouponsCacheTTL = 2 * time.Minute
)

// =====================================================
// COUPON SERVICE IMPLEMENTATION
// =====================================================
type couponService struct {
	couponRepo   repository.CouponRepository
	orderCounter OrderCounter
	redis        *redis.Client
}

// NewCouponService creates a new coupon service. redis may be nil in tests;
// caching then degrades to direct repository reads.
func NewCouponService(
	couponRepo repository.CouponRepository,
	orderCounter OrderCounter,
	redisClient *redis.Client,
) CouponService {
	return &couponService{
		couponRepo:   couponRepo,
		orderCounter: orderCounter,
		redis:        redisClient,
	}
}

// =====================================================
// EVALUATION
// =====================================================

func (s *couponService) EvaluateForOrder(
	ctx context.Context,
	userID uuid.UUID,
	code string,
	subtotal decimal.Decimal,
	now time.Time,
) (*model.Coupon, decimal.Decimal, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrCouponNotFound) {
			return nil, decimal.Zero, model.NewCouponError(model.ErrCodeCouponNotFound, "Coupon not found", err)
		}
		return nil, decimal.Zero, fmt.Errorf("failed to look up coupon: %w", err)
	}

	usageCount, err := s.couponRepo.CountUsageByUser(ctx, coupon.ID, userID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to count coupon usage: %w", err)
	}

	priorOrders, err := s.orderCounter.CountNonCancelledByUser(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to count prior orders: %w", err)
	}

	discount, err := coupon.Evaluate(model.EvaluationContext{
		Subtotal:        subtotal,
		Now:             now,
		PriorOrderCount: priorOrders,
		UserUsageCount:  usageCount,
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	return coupon, discount, nil
}

func (s *couponService) Validate(ctx context.Context, userID uuid.UUID, req model.ValidateCouponRequest) (*model.ValidateCouponResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewCouponError(model.ErrCodeInvalidCoupon, "Invalid request", err)
	}

	_, discount, err := s.EvaluateForOrder(ctx, userID, req.Code, req.Subtotal, time.Now())
	if err != nil {
		var couponErr *model.CouponError
		if errors.As(err, &couponErr) {
			reason := couponErr.Message
			return &model.ValidateCouponResponse{
				Valid:  false,
				Code:   req.Code,
				Reason: &reason,
			}, nil
		}
		return nil, err
	}

	return &model.ValidateCouponResponse{
		Valid:          true,
		Code:           req.Code,
		DiscountAmount: &discount,
	}, nil
}

// =====================================================
// LISTINGS
// =====================================================

func (s *couponService) ListActive(ctx context.Context) ([]model.CouponSummary, error) {
	if cached := s.readActiveCache(ctx); cached != nil {
		return cached, nil
	}

	coupons, err := s.couponRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active coupons: %w", err)
	}

	summaries := make([]model.CouponSummary, 0, len(coupons))
	for _, c := range coupons {
		summaries = append(summaries, toSummary(c))
	}

	s.writeActiveCache(ctx, summaries)

	return summaries, nil
}

func (s *couponService) ListAvailable(ctx context.Context, userID uuid.UUID) ([]model.AvailableCoupon, error) {
	coupons, err := s.couponRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active coupons: %w", err)
	}

	usageMap, err := s.couponRepo.CountUsageByUserAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage counts: %w", err)
	}

	now := time.Now()
	available := make([]model.AvailableCoupon, 0, len(coupons))
	for _, c := range coupons {
		available = append(available, model.AvailableCoupon{
			CouponSummary:  toSummary(c),
			Exhausted:      c.IsExhaustedFor(usageMap[c.ID]),
			AvailableToday: c.MatchesDay(now),
		})
	}

	return available, nil
}

func (s *couponService) UsageHistory(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.UsageHistoryItem, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return s.couponRepo.UsageHistoryByUser(ctx, userID, page, limit)
}

// =====================================================
// ADMIN OPERATIONS
// =====================================================

func (s *couponService) CreateCoupon(ctx context.Context, req model.CreateCouponRequest) (*model.Coupon, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewCouponError(model.ErrCodeInvalidCoupon, "Invalid request", err)
	}

	triggerType := req.TriggerType
	if triggerType == "" {
		triggerType = model.TriggerTypeManual
	}
	maxUses := req.MaxUsesPerUser
	if maxUses == 0 {
		maxUses = 1
	}

	coupon := &model.Coupon{
		Code:           req.Code,
		Description:    req.Description,
		DiscountType:   req.DiscountType,
		Value:          req.Value,
		MinAmount:      req.MinAmount,
		MaxDiscount:    req.MaxDiscount,
		DayOfWeek:      req.DayOfWeek,
		IsWeekendOnly:  req.IsWeekendOnly,
		TriggerType:    triggerType,
		MaxUsesPerUser: maxUses,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		Active:         true,
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		if errors.Is(err, model.ErrCouponCodeExists) {
			return nil, model.NewCouponError(model.ErrCodeCouponCodeExists, "Coupon code already exists", err)
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.invalidateActiveCache(ctx)

	return coupon, nil
}

func (s *couponService) UpdateCoupon(ctx context.Context, id uuid.UUID, req model.UpdateCouponRequest) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrCouponNotFound) {
			return nil, model.NewCouponError(model.ErrCodeCouponNotFound, "Coupon not found", err)
		}
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}

	if req.Description != nil {
		coupon.Description = req.Description
	}
	if req.Value != nil {
		coupon.Value = *req.Value
	}
	if req.MinAmount != nil {
		coupon.MinAmount = req.MinAmount
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = req.MaxDiscount
	}
	if req.MaxUsesPerUser != nil {
		coupon.MaxUsesPerUser = *req.MaxUsesPerUser
	}
	if req.ValidUntil != nil {
		coupon.ValidUntil = req.ValidUntil
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	s.invalidateActiveCache(ctx)

	return coupon, nil
}

func (s *couponService) DeactivateCoupon(ctx context.Context, id uuid.UUID) error {
	if err := s.couponRepo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, model.ErrCouponNotFound) {
			return model.NewCouponError(model.ErrCodeCouponNotFound, "Coupon not found", err)
		}
		return fmt.Errorf("failed to deactivate coupon: %w", err)
	}

	s.invalidateActiveCache(ctx)

	return nil
}

// =====================================================
// PRIVATE HELPERS
// =====================================================

func toSummary(c *model.Coupon) model.CouponSummary {
	return model.CouponSummary{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  c.DiscountType,
		Value:         c.Value,
		MinAmount:     c.MinAmount,
		MaxDiscount:   c.MaxDiscount,
		ValidUntil:    c.ValidUntil,
		IsWeekendOnly: c.IsWeekendOnly,
		DayOfWeek:     c.DayOfWeek,
	}
}

func (s *couponService) readActiveCache(ctx context.Context) []model.CouponSummary {
	if s.redis == nil {
		return nil
	}

	raw, err := s.redis.Get(ctx, activeCouponsCacheKey).Bytes()
	if err != nil {
		return nil
	}

	var summaries []model.CouponSummary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		return nil
	}

	return summaries
}

func (s *couponService) writeActiveCache(ctx context.Context, summaries []model.CouponSummary) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(summaries)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, activeCouponsCacheKey, raw, activeCouponsCacheTTL).Err(); err != nil {
		logger.Error("Failed to cache active coupons", err)
	}
}

func (s *couponService) invalidateActiveCache(ctx context.Context) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, activeCouponsCacheKey).Err(); err != nil {
		logger.Error("Failed to invalidate coupon cache", err)
	}
}
