package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/transport/http/response"
)

// JSONRecovery turns a handler panic into a generic 500 body; the stack goes to the log only.
func JSONRecovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.String("rid", c.GetString(KeyRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				response.Fail(c, apperr.Storage(fmt.Errorf("panic: %v", rec)))
			}
		}()
		c.Next()
	}
}
