package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/domain"
	"estate-crm/internal/service"
	"estate-crm/internal/transport/http/ez"
)

// UserHandler 用户管理；整组已要求 manage_users
type UserHandler struct{ svc *service.UserService }

func NewUserHandler(svc *service.UserService) *UserHandler { return &UserHandler{svc: svc} }

type userListQ struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
	Role   string `form:"role"`
}

func (h *UserHandler) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[userListQ, *service.PrincipalPage]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *userListQ) (*service.PrincipalPage, error) {
			return h.svc.List(c.Request.Context(), domain.PrincipalFilter{
				Search: in.Search, Role: in.Role, Page: in.Page, PageSize: in.Limit,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[service.CreateUserInput, *service.CreateUserResult]{
		Method:   http.MethodPost,
		Path:     "",
		Binder:   ez.BindJSON,
		Requires: []auth.Capability{auth.CapCreateUsers},
		Status:   http.StatusCreated,
		Handler: func(c *gin.Context, in *service.CreateUserInput) (*service.CreateUserResult, error) {
			return h.svc.Create(c.Request.Context(), identity(c), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[service.UpdateUserInput, *domain.Principal]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.UpdateUserInput) (*domain.Principal, error) {
			return h.svc.Update(c.Request.Context(), identity(c), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, message]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (message, error) {
			if err := h.svc.Delete(c.Request.Context(), identity(c), c.Param("id")); err != nil {
				return message{}, err
			}
			return message{Message: "User deleted"}, nil
		},
	})
}
