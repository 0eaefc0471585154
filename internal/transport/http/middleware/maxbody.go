package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			response.Fail(c, &apperr.Error{Kind: apperr.KindValidation, Msg: "Request body too large", Status: http.StatusRequestEntityTooLarge})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
