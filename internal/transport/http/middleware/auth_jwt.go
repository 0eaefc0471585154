package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/auth"
	"estate-crm/internal/transport/http/response"
)

const (
	msgTokenRequired = "Access token required"
	msgTokenInvalid  = "Invalid or expired token"
)

// bearerToken returns the credential after the scheme; a bare scheme counts as missing.
func bearerToken(header string) string {
	f := strings.Fields(header)
	if len(f) < 2 {
		return ""
	}
	return f[1]
}

// AuthJWT 校验令牌：未携带 → 401，携带但无效/过期 → 403
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := j.Authenticate(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				response.Fail(c, apperr.MissingCredential(msgTokenRequired))
				return
			}
			response.Fail(c, apperr.InvalidCredential(msgTokenInvalid))
			return
		}
		c.Request = c.Request.WithContext(auth.ContextWithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// Require 整组路由的能力校验；任一能力满足即放行
func Require(caps ...auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			response.Fail(c, apperr.MissingCredential(msgTokenRequired))
			return
		}
		if !auth.CanAny(id.Role, caps...) {
			response.Fail(c, apperr.Forbidden("missing capability: "+joinCaps(caps)))
			return
		}
		c.Next()
	}
}

func joinCaps(caps []auth.Capability) string {
	s := make([]string, len(caps))
	for i, c := range caps {
		s[i] = string(c)
	}
	return strings.Join(s, " or ")
}
