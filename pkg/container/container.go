package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"foodorder-backend/internal/config"
	"foodorder-backend/internal/domains/catalog"
	couponHandler "foodorder-backend/internal/domains/coupon/handler"
	couponRepo "foodorder-backend/internal/domains/coupon/repository"
	couponService "foodorder-backend/internal/domains/coupon/service"
	deliveryHandler "foodorder-backend/internal/domains/delivery/handler"
	deliveryRepo "foodorder-backend/internal/domains/delivery/repository"
	deliveryService "foodorder-backend/internal/domains/delivery/service"
	orderHandler "foodorder-backend/internal/domains/order/handler"
	orderRepo "foodorder-backend/internal/domains/order/repository"
	orderService "foodorder-backend/internal/domains/order/service"
	"foodorder-backend/internal/domains/payment/gateway"
	"foodorder-backend/internal/domains/payment/gateway/card"
	paymentHandler "foodorder-backend/internal/domains/payment/handler"
	paymentRepo "foodorder-backend/internal/domains/payment/repository"
	paymentService "foodorder-backend/internal/domains/payment/service"
	"foodorder-backend/internal/infrastructure/cache"
	"foodorder-backend/internal/infrastructure/database"
	"foodorder-backend/pkg/logger"
)

// =====================================================
// CONTAINER
// =====================================================

// Container is the root of the application's dependency graph. Everything
// here is a singleton created once at startup, in dependency order.
type Container struct {
	// Infrastructure
	Config *config.Config
	DB     *database.PostgresDB
	Redis  *cache.RedisClient
	Asynq  *asynq.Client

	// External clients
	CatalogClient catalog.Client
	CardGateway   gateway.CardGateway

	// Repositories
	OrderRepo    orderRepo.OrderRepository
	CouponRepo   couponRepo.CouponRepository
	PaymentRepo  paymentRepo.PaymentRepository
	DeliveryRepo deliveryRepo.DeliveryRepository

	// Services
	CouponService   couponService.CouponService
	OrderService    orderService.OrderService
	DeliveryService deliveryService.DeliveryService
	PaymentService  paymentService.PaymentService

	// HTTP handlers
	CouponHandler   *couponHandler.CouponHandler
	OrderHandler    *orderHandler.OrderHandler
	DeliveryHandler *deliveryHandler.DeliveryHandler
	PaymentHandler  *paymentHandler.PaymentHandler
}

// NewContainer builds the full dependency graph.
//
// Initialization order matters:
// 1. Config
// 2. Infrastructure (Postgres, Redis, asynq client)
// 3. External clients (catalog, card gateway)
// 4. Repositories
// 5. Services
// 6. Handlers
func NewContainer() (*Container, error) {
	c := &Container{}

	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Info("Config loaded", map[string]interface{}{
		"environment": cfg.App.Environment,
	})

	// Step 2: Connect to Postgres
	db := database.NewPostgresDB(cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db
	logger.Info("Database connected", nil)

	// Step 3: Connect to Redis. Coupon caching degrades gracefully without
	// it, but asynq enqueueing needs it, so failure here is fatal.
	redisClient := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = redisClient
	logger.Info("Redis connected", nil)

	c.Asynq = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Step 4: External clients
	c.CatalogClient = catalog.NewHTTPClient(cfg.Catalog)
	c.CardGateway = card.NewAuthorizer(cfg.Payment)

	// Step 5-7: Repositories, services, handlers
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("Container initialized", nil)
	return c, nil
}

// =====================================================
// LAYER INITIALIZERS
// =====================================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.OrderRepo = orderRepo.NewPostgresOrderRepository(pool)
	c.CouponRepo = couponRepo.NewPostgresCouponRepository(pool)
	c.PaymentRepo = paymentRepo.NewPostgresPaymentRepository(pool)
	c.DeliveryRepo = deliveryRepo.NewPostgresDeliveryRepository(pool)
}

func (c *Container) initServices() {
	// Order repository doubles as the coupon engine's prior-order counter.
	c.CouponService = couponService.NewCouponService(
		c.CouponRepo,
		c.OrderRepo,
		c.Redis.Client,
	)

	c.OrderService = orderService.NewOrderService(
		c.OrderRepo,
		c.CouponService,
		c.CouponRepo,
		c.PaymentRepo,
		c.CatalogClient,
		c.Asynq,
		c.Config.Order,
	)

	c.DeliveryService = deliveryService.NewDeliveryService(
		c.DeliveryRepo,
		c.OrderRepo,
		c.PaymentRepo,
		c.Asynq,
	)

	c.PaymentService = paymentService.NewPaymentService(
		c.PaymentRepo,
		c.OrderRepo,
		c.CardGateway,
	)
}

func (c *Container) initHandlers() {
	c.CouponHandler = couponHandler.NewCouponHandler(c.CouponService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.DeliveryHandler = deliveryHandler.NewDeliveryHandler(c.DeliveryService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
}

// =====================================================
// CLEANUP
// =====================================================

// Cleanup releases infrastructure resources. Call on shutdown, after the
// HTTP server has drained.
func (c *Container) Cleanup() {
	if c.Asynq != nil {
		if err := c.Asynq.Close(); err != nil {
			logger.Error("Failed to close asynq client", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("Failed to close redis client", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	logger.Info("Container cleanup completed", nil)
}
