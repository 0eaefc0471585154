package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/domain"
	"estate-crm/internal/service"
	"estate-crm/internal/transport/http/ez"
)

type AuthHandler struct{ svc *service.AuthService }

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

type loginIn struct {
	Email    string `json:"email" binding:"required,max=191"`
	Password string `json:"password" binding:"required,max=72"`
}

// MountPublic 无需登录
func (h *AuthHandler) MountPublic(g *gin.RouterGroup) {
	ez.RegisterAction(ez.New(g), ez.Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.LoginResult, error) {
			return h.svc.Login(c.Request.Context(), in.Email, in.Password)
		},
	})
}

type changePasswordIn struct {
	CurrentPassword string `json:"currentPassword" binding:"required,max=72"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

type message struct {
	Message string `json:"message"`
}

func (h *AuthHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	ez.RegisterAction(e, ez.Action[struct{}, *service.MeResult]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.MeResult, error) {
			return h.svc.Me(c.Request.Context(), identity(c))
		},
	})
	ez.RegisterAction(e, ez.Action[service.ProfileInput, *domain.Principal]{
		Method: http.MethodPut,
		Path:   "/me",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ProfileInput) (*domain.Principal, error) {
			return h.svc.UpdateProfile(c.Request.Context(), identity(c), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[changePasswordIn, message]{
		Method: http.MethodPut,
		Path:   "/me/password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *changePasswordIn) (message, error) {
			err := h.svc.ChangePassword(c.Request.Context(), identity(c), in.CurrentPassword, in.NewPassword)
			if err != nil {
				return message{}, err
			}
			return message{Message: "Password updated"}, nil
		},
	})
}

// identity 由 AuthJWT 写入；未挂鉴权的分组拿到零值，能力校验会拒绝
func identity(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request.Context())
	return id
}
