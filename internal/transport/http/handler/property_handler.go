package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/domain"
	"estate-crm/internal/service"
	"estate-crm/internal/transport/http/ez"
)

type PropertyHandler struct{ svc *service.PropertyService }

func NewPropertyHandler(svc *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

type propertyListQ struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	ProjectID string `form:"projectId"`
}

func (h *PropertyHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[propertyListQ, *domain.PropertyPage]{
		Method:   http.MethodGet,
		Path:     "/properties",
		Binder:   ez.BindQuery,
		Requires: []auth.Capability{auth.CapViewProperties},
		Handler: func(c *gin.Context, in *propertyListQ) (*domain.PropertyPage, error) {
			return h.svc.List(c.Request.Context(), identity(c), service.PropertyListInput{
				Search: in.Search, Status: in.Status, ProjectID: in.ProjectID, Page: in.Page, Limit: in.Limit,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[service.PropertyInput, *domain.Property]{
		Method:   http.MethodPost,
		Path:     "/properties",
		Binder:   ez.BindJSON,
		Requires: []auth.Capability{auth.CapCreateProperties},
		Status:   http.StatusCreated,
		Handler: func(c *gin.Context, in *service.PropertyInput) (*domain.Property, error) {
			return h.svc.Create(c.Request.Context(), identity(c), *in)
		},
	})
}
