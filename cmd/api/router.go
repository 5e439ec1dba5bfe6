package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"foodorder-backend/internal/shared/middleware"
	"foodorder-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		jwtSecret := c.Config.JWT.Secret

		// Authenticated customer routes
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(jwtSecret))

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.AdminMiddleware())

		// Courier routes
		courier := v1.Group("")
		courier.Use(middleware.AuthMiddleware(jwtSecret), middleware.DeliveryMiddleware())

		c.OrderHandler.RegisterRoutes(authed, admin)
		c.CouponHandler.RegisterRoutes(authed, admin)
		c.DeliveryHandler.RegisterRoutes(courier)

		// Transfer confirmation is public: the emailed token is the
		// credential, not a session.
		c.PaymentHandler.RegisterRoutes(authed, v1, admin)
	}

	return router
}

// =====================================================
// HEALTH CHECK
// =====================================================

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}
		services := gin.H{}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}
		services["database"] = dbStatus

		redisStatus := "ok"
		if appCtx.Redis == nil {
			redisStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Redis.HealthCheck(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}
		services["redis"] = redisStatus

		health["services"] = services

		status := 200
		if health["status"] != "ok" {
			status = 503
		}
		c.JSON(status, health)
	}
}
