package middleware

import (
	"github.com/gin-gonic/gin"

	"novelstore-backend/internal/shared"
	"novelstore-backend/internal/shared/response"
	"novelstore-backend/pkg/jwt"
)

// AdminMiddleware checks if user has admin role
// Phải đặt sau AuthMiddleware
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get role from context (set by AuthMiddleware)
		role, ok := c.Get(shared.ContextKeyRole)
		if !ok || role != jwt.RoleAdmin {
			response.Forbidden(c, "Access denied: admin role required")
			return
		}

		c.Next()
	}
}
