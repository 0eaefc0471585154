package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-crm/internal/core/auth"
	"estate-crm/internal/domain"
	"estate-crm/internal/service"
	"estate-crm/internal/transport/http/ez"
)

type LeadHandler struct{ svc *service.LeadService }

func NewLeadHandler(svc *service.LeadService) *LeadHandler { return &LeadHandler{svc: svc} }

type leadListQ struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
	Status string `form:"status"`
}

type assignIn struct {
	AgentID string `json:"agentId" binding:"required,max=36"`
}

func (h *LeadHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[leadListQ, *domain.LeadPage]{
		Method:   http.MethodGet,
		Path:     "/leads",
		Binder:   ez.BindQuery,
		Requires: []auth.Capability{auth.CapViewLeads},
		Handler: func(c *gin.Context, in *leadListQ) (*domain.LeadPage, error) {
			return h.svc.List(c.Request.Context(), identity(c), service.LeadListInput{
				Search: in.Search, Status: in.Status, Page: in.Page, Limit: in.Limit,
			})
		},
	})

	// 静态段 /leads/stats、/leads/export 优先于 /leads/:id 匹配
	ez.RegisterAction(e, ez.Action[struct{}, *domain.LeadStats]{
		Method:   http.MethodGet,
		Path:     "/leads/stats",
		Binder:   ez.BindNone,
		Requires: []auth.Capability{auth.CapViewReports, auth.CapViewReportsLimited},
		Handler: func(c *gin.Context, _ *struct{}) (*domain.LeadStats, error) {
			return h.svc.Stats(c.Request.Context(), identity(c))
		},
	})

	ez.RegisterAction(e, ez.Action[leadListQ, *domain.LeadExport]{
		Method:   http.MethodGet,
		Path:     "/leads/export",
		Binder:   ez.BindQuery,
		Requires: []auth.Capability{auth.CapExportReports},
		Handler: func(c *gin.Context, in *leadListQ) (*domain.LeadExport, error) {
			return h.svc.Export(c.Request.Context(), identity(c), service.LeadListInput{
				Search: in.Search, Status: in.Status, Limit: in.Limit,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Lead]{
		Method:   http.MethodGet,
		Path:     "/leads/:id",
		Binder:   ez.BindNone,
		Requires: []auth.Capability{auth.CapViewLeads},
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Lead, error) {
			return h.svc.Get(c.Request.Context(), identity(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []domain.LeadActivity]{
		Method:   http.MethodGet,
		Path:     "/leads/:id/activities",
		Binder:   ez.BindNone,
		Requires: []auth.Capability{auth.CapViewLeads},
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.LeadActivity, error) {
			return h.svc.Activities(c.Request.Context(), identity(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.LeadInput, *domain.Lead]{
		Method:   http.MethodPost,
		Path:     "/leads",
		Binder:   ez.BindJSON,
		Requires: []auth.Capability{auth.CapCreateLeads},
		Status:   http.StatusCreated,
		Handler: func(c *gin.Context, in *service.LeadInput) (*domain.Lead, error) {
			return h.svc.Create(c.Request.Context(), identity(c), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[service.LeadUpdate, *domain.Lead]{
		Method:   http.MethodPut,
		Path:     "/leads/:id",
		Binder:   ez.BindJSON,
		Requires: []auth.Capability{auth.CapEditLeads},
		Handler: func(c *gin.Context, in *service.LeadUpdate) (*domain.Lead, error) {
			return h.svc.Update(c.Request.Context(), identity(c), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[assignIn, *domain.Lead]{
		Method:   http.MethodPut,
		Path:     "/leads/:id/assign",
		Binder:   ez.BindJSON,
		Requires: []auth.Capability{auth.CapAssignLeads},
		Handler: func(c *gin.Context, in *assignIn) (*domain.Lead, error) {
			return h.svc.Assign(c.Request.Context(), identity(c), c.Param("id"), in.AgentID)
		},
	})
}
