// Package response writes JSON failure bodies.
package response

import (
	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/apperr"
)

// ErrorBody 失败响应统一格式
type ErrorBody struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

// Fail maps err through apperr and aborts. The cause is attached to c.Errors for the
// access log and never reaches the client.
func Fail(c *gin.Context, err error) {
	e := apperr.From(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(e), ErrorBody{Error: e.Error(), Kind: e.Kind})
}
