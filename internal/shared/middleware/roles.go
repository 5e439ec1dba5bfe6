package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodorder-backend/internal/shared"
)

// AdminMiddleware checks if user has admin role
func AdminMiddleware() gin.HandlerFunc {
	return requireRole(shared.RoleAdmin)
}

// DeliveryMiddleware checks if user has delivery role
func DeliveryMiddleware() gin.HandlerFunc {
	return requireRole(shared.RoleDelivery)
}

func requireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied: " + required + " role required",
			})
			c.Abort()
			return
		}

		role, ok := roleInterface.(string)
		if !ok || role != required {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied: " + required + " role required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
