package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"novelstore-backend/internal/shared"
)

const HeaderRequestID = "X-Request-ID"

// RequestID gắn request id vào context và response header
// Giữ nguyên id client gửi lên (nếu có) để trace xuyên service
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		c.Set(shared.ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
