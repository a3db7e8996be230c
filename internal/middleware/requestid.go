package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/handler"
)

const HeaderXRequestID = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.New().String()
		}

		c.Set(handler.CtxRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
