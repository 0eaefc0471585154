package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/metrics"
	"estate-crm/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests (sized to the DB pool) and waits at most
// wait for a slot before answering 503.
func ConcurrencyLimit(max int64, wait time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if wait > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, wait)
			defer cancel()
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			metrics.HTTPRejected.Inc()
			response.Fail(c, apperr.Unavailable("Server busy, retry later", err))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
