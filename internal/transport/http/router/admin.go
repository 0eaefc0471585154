package router

import (
	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/auth"
	mdw "estate-crm/internal/transport/http/middleware"
)

// mountAdmin 用户管理分组：在已鉴权分组下统一要求 manage_users
func mountAdmin(authed *gin.RouterGroup, reg *Registry) {
	users := authed.Group("/users")
	users.Use(mdw.Require(auth.CapManageUsers))
	reg.MountAdmin(users)
}
