package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"foodorder-backend/internal/config"
	"foodorder-backend/internal/domains/catalog"
	couponModel "foodorder-backend/internal/domains/coupon/model"
	couponRepo "foodorder-backend/internal/domains/coupon/repository"
	coupon "foodorder-backend/internal/domains/coupon/service"
	"foodorder-backend/internal/domains/order/model"
	"foodorder-backend/internal/domains/order/repository"
	paymentModel "foodorder-backend/internal/domains/payment/model"
	payment "foodorder-backend/internal/domains/payment/repository"
	"foodorder-backend/internal/shared"
	"foodorder-backend/pkg/logger"
)

// =====================================================
// ORDER SERVICE IMPLEMENTATION
// =====================================================
type orderService struct {
	orderRepo     repository.OrderRepository
	couponService coupon.CouponService
	couponRepo    couponRepo.CouponRepository
	paymentRepo   payment.PaymentRepository
	catalogClient catalog.Client
	asynq         *asynq.Client

	deliveryFee    decimal.Decimal
	taxRate        decimal.Decimal
	confirmBaseURL string
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	couponService coupon.CouponService,
	couponRepository couponRepo.CouponRepository,
	paymentRepo payment.PaymentRepository,
	catalogClient catalog.Client,
	asynqClient *asynq.Client,
	cfg config.OrderConfig,
) OrderService {
	deliveryFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		logger.Warn("Invalid delivery fee config, using default", map[string]interface{}{
			"value": cfg.DeliveryFee,
		})
		deliveryFee = decimal.NewFromFloat(2.50)
	}

	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		logger.Warn("Invalid tax rate config, using default", map[string]interface{}{
			"value": cfg.TaxRate,
		})
		taxRate = decimal.NewFromFloat(0.12)
	}

	return &orderService{
		orderRepo:      orderRepo,
		couponService:  couponService,
		couponRepo:     couponRepository,
		paymentRepo:    paymentRepo,
		catalogClient:  catalogClient,
		asynq:          asynqClient,
		deliveryFee:    deliveryFee,
		taxRate:        taxRate,
		confirmBaseURL: cfg.ConfirmBaseURL,
	}
}

// =====================================================
// CREATE ORDER - MAIN BUSINESS LOGIC
// =====================================================

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	// Step 1: Validate request
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidOrder, "Invalid order request", err)
	}
	if len(req.Items) == 0 {
		return nil, model.NewOrderError(model.ErrCodeCartEmpty, "Order has no items", model.ErrCartEmpty)
	}

	// Step 2: Resolve products and snapshot prices
	orderID := uuid.New()
	orderItems, err := s.buildOrderItems(ctx, orderID, req.Items)
	if err != nil {
		return nil, err
	}

	subtotal := model.CalculateItemsSubtotal(orderItems)

	// Step 3: Evaluate coupon against the priced cart
	var appliedCoupon *couponModel.Coupon
	discountAmount := decimal.Zero

	if req.CouponCode != nil && *req.CouponCode != "" {
		appliedCoupon, discountAmount, err = s.couponService.EvaluateForOrder(ctx, userID, *req.CouponCode, subtotal, time.Now())
		if err != nil {
			return nil, err
		}
	}

	// Step 4: Compute totals server-side
	subtotal, discount, fee, tax, total := model.CalculateOrderAmounts(subtotal, discountAmount, s.deliveryFee, s.taxRate)

	// Step 5: Build order entity
	var couponID *uuid.UUID
	if appliedCoupon != nil {
		couponID = &appliedCoupon.ID
	}

	order := &model.Order{
		ID:             orderID,
		UserID:         userID,
		Status:         model.OrderStatusPending,
		PaymentMethod:  req.PaymentMethod,
		CouponID:       couponID,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		DeliveryFee:    fee,
		Tax:            tax,
		Total:          total,
		Street:         req.Address.Street,
		City:           req.Address.City,
		PostalCode:     req.Address.PostalCode,
		Reference:      req.Address.Reference,
		CustomerNote:   req.CustomerNote,
		Version:        0,
	}

	// Step 6: Transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	if err := s.orderRepo.CreateOrderWithTx(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.orderRepo.CreateOrderItemsWithTx(ctx, tx, orderItems); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	statusHistory := &model.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: nil,
		ToStatus:   order.Status,
		ChangedBy:  &userID,
		Notes:      nil,
	}
	if err := s.orderRepo.CreateOrderStatusHistoryWithTx(ctx, tx, statusHistory); err != nil {
		return nil, fmt.Errorf("failed to create order status history: %w", err)
	}

	// Step 7: Commit coupon usage inside the same tx
	if appliedCoupon != nil {
		usage := &couponModel.CouponUsage{
			CouponID:       appliedCoupon.ID,
			UserID:         userID,
			OrderID:        orderID,
			DiscountAmount: discount,
		}
		if err := s.couponRepo.ApplyUsageWithTx(ctx, tx, usage, appliedCoupon.MaxUsesPerUser); err != nil {
			return nil, err
		}
	}

	// Step 8: Payment row for cash and transfer
	var confirmationToken *uuid.UUID
	switch req.PaymentMethod {
	case model.PaymentMethodCash:
		pay := &paymentModel.Payment{
			ID:      uuid.New(),
			OrderID: orderID,
			Method:  req.PaymentMethod,
			Amount:  total,
			Status:  paymentModel.PaymentStatusPending,
		}
		if err := s.paymentRepo.CreateWithTx(ctx, tx, pay); err != nil {
			return nil, fmt.Errorf("failed to create cash payment row: %w", err)
		}

	case model.PaymentMethodTransfer:
		token := uuid.New()
		confirmationToken = &token
		pay := &paymentModel.Payment{
			ID:                uuid.New(),
			OrderID:           orderID,
			Method:            req.PaymentMethod,
			Amount:            total,
			ConfirmationToken: &token,
			Status:            paymentModel.PaymentStatusPending,
		}
		if err := s.paymentRepo.CreateWithTx(ctx, tx, pay); err != nil {
			return nil, fmt.Errorf("failed to create transfer payment row: %w", err)
		}
	}

	// Step 9: Commit
	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Step 10: Jobs after commit
	s.notifyStatusChange(order.ID, userID, nil, order.Status)

	// Step 11: Response
	resp := &model.CreateOrderResponse{
		OrderID:        order.ID,
		Status:         order.Status,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		DeliveryFee:    order.DeliveryFee,
		Tax:            order.Tax,
		Total:          order.Total,
	}
	if confirmationToken != nil {
		url := fmt.Sprintf("%s?order_id=%s&token=%s", s.confirmBaseURL, order.ID, confirmationToken)
		resp.ConfirmationURL = &url
	}

	return resp, nil
}

// buildOrderItems resolves every product through the catalog and freezes
// names and prices onto the items.
func (s *orderService) buildOrderItems(ctx context.Context, orderID uuid.UUID, reqItems []model.CreateOrderItem) ([]model.OrderItem, error) {
	productIDs := make([]uuid.UUID, 0, len(reqItems))
	for _, item := range reqItems {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.catalogClient.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeProductUnavailable, "Failed to resolve products", err)
	}

	items := make([]model.OrderItem, 0, len(reqItems))
	for _, reqItem := range reqItems {
		product, ok := products[reqItem.ProductID]
		if !ok || !product.Available {
			return nil, model.NewOrderError(
				model.ErrCodeProductUnavailable,
				fmt.Sprintf("Product is unavailable: %s", reqItem.ProductID),
				model.ErrProductUnavailable,
			)
		}

		extras, err := resolveExtras(product, reqItem.ExtraIDs)
		if err != nil {
			return nil, model.NewOrderError(
				model.ErrCodeProductUnavailable,
				fmt.Sprintf("Invalid extra for product: %s", reqItem.ProductID),
				err,
			)
		}

		item := model.OrderItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    reqItem.Quantity,
			UnitPrice:   product.Price,
			Extras:      extras,
		}
		item.Subtotal = item.CalculateSubtotal()
		items = append(items, item)
	}

	return items, nil
}

func resolveExtras(product *catalog.Product, extraIDs []uuid.UUID) (model.ItemExtras, error) {
	if len(extraIDs) == 0 {
		return nil, nil
	}

	byID := make(map[uuid.UUID]catalog.Extra, len(product.Extras))
	for _, ex := range product.Extras {
		byID[ex.ID] = ex
	}

	extras := make(model.ItemExtras, 0, len(extraIDs))
	for _, id := range extraIDs {
		ex, ok := byID[id]
		if !ok {
			return nil, catalog.ErrExtraNotFound
		}
		extras = append(extras, model.ItemExtra{Name: ex.Name, Price: ex.Price})
	}

	return extras, nil
}

// =====================================================
// GET ORDER DETAIL
// =====================================================

func (s *orderService) GetOrderDetail(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*model.OrderDetailResponse, error) {
	var order *model.Order
	var err error

	// Admins see any order, customers only their own
	if isAdmin {
		order, err = s.orderRepo.GetOrderByID(ctx, orderID)
	} else {
		order, err = s.orderRepo.GetOrderByIDAndUserID(ctx, orderID, requesterID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}

	histories, err := s.orderRepo.GetOrderStatusHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order status history: %w", err)
	}

	deliveryState, err := order.DeliveryState()
	if err != nil {
		logger.Error("Order has inconsistent delivery columns", err)
		return nil, fmt.Errorf("failed to derive delivery state: %w", err)
	}

	itemResponses := make([]model.OrderItemResponse, 0, len(items))
	for i := range items {
		itemResponses = append(itemResponses, items[i].ToItemResponse())
	}

	historyItems := make([]model.StatusHistoryItem, 0, len(histories))
	for _, h := range histories {
		historyItems = append(historyItems, model.StatusHistoryItem{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			ChangedBy:  h.ChangedBy,
			Notes:      h.Notes,
			ChangedAt:  h.ChangedAt,
		})
	}

	return &model.OrderDetailResponse{
		ID:             order.ID,
		Status:         order.Status,
		PaymentMethod:  order.PaymentMethod,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		DeliveryFee:    order.DeliveryFee,
		Tax:            order.Tax,
		Total:          order.Total,
		Items:          itemResponses,
		Address: model.OrderAddressResponse{
			Street:     order.Street,
			City:       order.City,
			PostalCode: order.PostalCode,
			Reference:  order.Reference,
		},
		Delivery:      deliveryState,
		CustomerNote:  order.CustomerNote,
		AdminNote:     order.AdminNote,
		StatusHistory: historyItems,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		CancelledAt:   order.CancelledAt,
		Version:       order.Version,
	}, nil
}

// =====================================================
// LIST ORDERS
// =====================================================

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) ([]model.OrderSummaryResponse, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, model.NewOrderError(model.ErrCodeInvalidStatus, "Invalid status filter", err)
	}

	orders, total, err := s.orderRepo.ListOrdersByUserID(ctx, userID, req.Status, req.Page, req.Limit)
	if err != nil {
		return nil, 0, err
	}

	return s.toSummaries(ctx, orders), total, err
}

func (s *orderService) ListAllOrders(ctx context.Context, req model.ListOrdersRequest) ([]model.OrderSummaryResponse, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, model.NewOrderError(model.ErrCodeInvalidStatus, "Invalid status filter", err)
	}

	orders, total, err := s.orderRepo.ListAllOrders(ctx, req.Status, req.Page, req.Limit)
	if err != nil {
		return nil, 0, err
	}

	return s.toSummaries(ctx, orders), total, err
}

func (s *orderService) toSummaries(ctx context.Context, orders []model.Order) []model.OrderSummaryResponse {
	orderIDs := make([]uuid.UUID, 0, len(orders))
	for i := range orders {
		orderIDs = append(orderIDs, orders[i].ID)
	}

	counts, err := s.orderRepo.CountOrderItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		logger.Error("Failed to count order items for list view", err)
		counts = map[uuid.UUID]int{}
	}

	summaries := make([]model.OrderSummaryResponse, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, orders[i].ToSummary(counts[orders[i].ID]))
	}
	return summaries
}

// =====================================================
// CANCEL ORDER (Customer)
// =====================================================

func (s *orderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID, req model.CancelOrderRequest) error {
	if err := req.Validate(); err != nil {
		return model.NewOrderError(model.ErrCodeInvalidOrder, "Invalid cancel request", err)
	}

	order, err := s.orderRepo.GetOrderByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return err
	}

	if !order.CanBeCancelled() {
		return model.NewOrderError(
			model.ErrCodeOrderCannotCancel,
			fmt.Sprintf("Order in status %q cannot be cancelled", order.Status),
			model.ErrOrderCannotCancel,
		)
	}

	if err := s.orderRepo.CancelOrder(ctx, orderID, req.Reason, order.Version); err != nil {
		return err
	}

	fromStatus := order.Status
	history := &model.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: &fromStatus,
		ToStatus:   model.OrderStatusCancelled,
		ChangedBy:  &userID,
		Notes:      req.Reason,
	}
	if err := s.orderRepo.CreateOrderStatusHistory(ctx, history); err != nil {
		logger.Error("Failed to record cancellation history", err)
	}

	s.notifyStatusChange(orderID, userID, &fromStatus, model.OrderStatusCancelled)

	return nil
}

// =====================================================
// UPDATE ORDER STATUS (Admin)
// =====================================================

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID, adminID uuid.UUID, req model.UpdateOrderStatusRequest) error {
	if err := req.Validate(); err != nil {
		return model.NewOrderError(model.ErrCodeInvalidStatus, "Invalid status request", err)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.CanTransitionTo(req.Status) {
		return model.NewOrderError(
			model.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot transition from %q to %q", order.Status, req.Status),
			model.ErrInvalidTransition,
		)
	}

	// The delivery leg cannot be entered before a delivery person claims
	// the order, even on an override jump.
	if (req.Status == model.OrderStatusDelivering || req.Status == model.OrderStatusDelivered) && !order.IsClaimed() {
		return model.NewOrderError(
			model.ErrCodeCourierRequired,
			"Order has no delivery person assigned",
			model.ErrCourierRequired,
		)
	}

	stamps := model.StampsForStatus(req.Status, time.Now())

	if req.Status == model.OrderStatusCancelled {
		err = s.orderRepo.CancelOrder(ctx, orderID, req.AdminNote, order.Version)
	} else {
		err = s.orderRepo.UpdateOrderStatus(ctx, orderID, req.Status, order.Version, req.AdminNote, stamps)
	}
	if err != nil {
		return err
	}

	fromStatus := order.Status
	history := &model.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: &fromStatus,
		ToStatus:   req.Status,
		ChangedBy:  &adminID,
		Notes:      req.AdminNote,
	}
	if err := s.orderRepo.CreateOrderStatusHistory(ctx, history); err != nil {
		logger.Error("Failed to record status history", err)
	}

	s.notifyStatusChange(orderID, order.UserID, &fromStatus, req.Status)

	if req.Status == model.OrderStatusReady {
		s.notifyOrderReady(orderID, order.UserID)
	}

	if req.Status == model.OrderStatusDelivered {
		s.settleCashOnDelivery(ctx, orderID)
	}

	return nil
}

// =====================================================
// CONFIRM DELIVERY (Customer)
// =====================================================

func (s *orderService) ConfirmDelivery(ctx context.Context, orderID, userID uuid.UUID) error {
	err := s.orderRepo.ConfirmDelivery(ctx, orderID, userID)
	if err == nil {
		fromStatus := model.OrderStatusDelivering
		history := &model.OrderStatusHistory{
			OrderID:    orderID,
			FromStatus: &fromStatus,
			ToStatus:   model.OrderStatusDelivered,
			ChangedBy:  &userID,
		}
		if histErr := s.orderRepo.CreateOrderStatusHistory(ctx, history); histErr != nil {
			logger.Error("Failed to record delivery confirmation history", histErr)
		}
		s.notifyStatusChange(orderID, userID, &fromStatus, model.OrderStatusDelivered)
		s.settleCashOnDelivery(ctx, orderID)
		return nil
	}

	// Zero rows: either the order does not exist for this user, or it is
	// not delivering. Fetch to report the right error.
	order, getErr := s.orderRepo.GetOrderByIDAndUserID(ctx, orderID, userID)
	if getErr != nil {
		return getErr
	}

	return model.NewOrderError(
		model.ErrCodeInvalidTransition,
		fmt.Sprintf("Cannot confirm delivery of order in status %q", order.Status),
		model.ErrInvalidTransition,
	)
}

// =====================================================
// STALE ORDER SWEEP
// =====================================================

func (s *orderService) CancelStaleOrders(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	ids, err := s.orderRepo.FindStalePendingIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	note := "auto-cancelled: order not confirmed in time"
	cancelled := 0
	for _, id := range ids {
		// Each cancel re-checks status and age, so orders confirmed
		// between the scan and the update are skipped.
		ok, err := s.orderRepo.CancelStalePending(ctx, id, cutoff)
		if err != nil {
			logger.Error("Failed to cancel stale order", err)
			continue
		}
		if !ok {
			continue
		}
		cancelled++

		fromStatus := model.OrderStatusPending
		history := &model.OrderStatusHistory{
			OrderID:    id,
			FromStatus: &fromStatus,
			ToStatus:   model.OrderStatusCancelled,
			Notes:      &note,
		}
		if err := s.orderRepo.CreateOrderStatusHistory(ctx, history); err != nil {
			logger.Error("Failed to record stale cancellation history", err)
		}
	}

	if cancelled > 0 {
		logger.Info("Stale order sweep finished", map[string]interface{}{
			"scanned":   len(ids),
			"cancelled": cancelled,
		})
	}

	return cancelled, nil
}

// settleCashOnDelivery flips the pending cash marker row to paid. The
// conditional update makes it a no-op for card and transfer orders.
func (s *orderService) settleCashOnDelivery(ctx context.Context, orderID uuid.UUID) {
	if _, err := s.paymentRepo.SettleCashOnDelivery(ctx, orderID); err != nil {
		logger.Error("Failed to settle cash payment on delivery", err)
	}
}

// =====================================================
// NOTIFICATIONS (fire-and-forget)
// =====================================================

func (s *orderService) notifyStatusChange(orderID, userID uuid.UUID, fromStatus *string, toStatus string) {
	if s.asynq == nil {
		return
	}

	payload := shared.OrderEventPayload{
		OrderID:  orderID.String(),
		UserID:   userID.String(),
		ToStatus: toStatus,
	}
	if fromStatus != nil {
		payload.FromStatus = *fromStatus
	}

	b, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal order event payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeOrderStatusChanged, b)
	if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueNotifications)); err != nil {
		logger.Error("Failed to enqueue order status notification", err)
	}
}

func (s *orderService) notifyOrderReady(orderID, userID uuid.UUID) {
	if s.asynq == nil {
		return
	}

	payload := shared.OrderEventPayload{
		OrderID:  orderID.String(),
		UserID:   userID.String(),
		ToStatus: model.OrderStatusReady,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal order ready payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeOrderReady, b)
	if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueNotifications)); err != nil {
		logger.Error("Failed to enqueue order ready notification", err)
	}
}
