package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/transport/http/response"
)

// Timeout bounds the request context; storage calls observe it.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			response.Fail(c, &apperr.Error{Kind: apperr.KindUnavailable, Msg: "Request timed out", Status: http.StatusGatewayTimeout})
		}
	}
}
