package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/domain"
	"estate-crm/internal/service"
	"estate-crm/internal/transport/http/ez"
)

type ProjectHandler struct{ svc *service.ProjectService }

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler { return &ProjectHandler{svc: svc} }

type projectListQ struct {
	Page            int    `form:"page"`
	Limit           int    `form:"limit"`
	Search          string `form:"search"`
	IncludeInactive bool   `form:"includeInactive"`
}

func (h *ProjectHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[projectListQ, *domain.ProjectPage]{
		Method:   http.MethodGet,
		Path:     "/projects",
		Binder:   ez.BindQuery,
		Requires: []auth.Capability{auth.CapViewProperties},
		Handler: func(c *gin.Context, in *projectListQ) (*domain.ProjectPage, error) {
			return h.svc.List(c.Request.Context(), identity(c), service.ProjectListInput{
				Search: in.Search, IncludeInactive: in.IncludeInactive, Page: in.Page, Limit: in.Limit,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Project]{
		Method:   http.MethodGet,
		Path:     "/projects/:id",
		Binder:   ez.BindNone,
		Requires: []auth.Capability{auth.CapViewProperties},
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Project, error) {
			return h.svc.Get(c.Request.Context(), identity(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.ProjectInput, *domain.Project]{
		Method:   http.MethodPost,
		Path:     "/projects",
		Binder:   ez.BindJSON,
		Requires: []auth.Capability{auth.CapCreateProjects},
		Status:   http.StatusCreated,
		Handler: func(c *gin.Context, in *service.ProjectInput) (*domain.Project, error) {
			return h.svc.Create(c.Request.Context(), identity(c), *in)
		},
	})
}
