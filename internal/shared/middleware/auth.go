package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"novelstore-backend/internal/shared"
	"novelstore-backend/internal/shared/response"
	"novelstore-backend/pkg/jwt"
)

// AuthMiddleware - Middleware xác thực JWT bearer token
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		// 2. Extract token từ "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		// 3. Verify và parse JWT
		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			log.Debug().
				Err(err).
				Str("request_id", c.GetString(shared.ContextKeyRequestID)).
				Msg("Rejected bearer token")
			response.Unauthorized(c, "invalid token")
			return
		}

		if claims.UserID == "" {
			response.Unauthorized(c, "invalid user ID in token")
			return
		}

		// 4. Set user info vào context cho handler và AdminMiddleware
		c.Set(shared.ContextKeyUserID, claims.UserID)
		c.Set(shared.ContextKeyRole, claims.Role)

		c.Next()
	}
}
