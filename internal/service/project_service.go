package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/auth"
	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
	"estate-crm/pkg/utils"
)

const msgProjectNotFound = "Project not found"

type ProjectService struct {
	store domain.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewProjectService(store domain.Store, l *zap.Logger) *ProjectService {
	return &ProjectService{store: store, log: l, now: time.Now}
}

type ProjectListInput struct {
	Search          string
	IncludeInactive bool
	Page            int
	Limit           int
}

// List shows active projects; inactive ones only to principals who can create projects.
func (s *ProjectService) List(ctx context.Context, requester auth.Identity, in ProjectListInput) (*domain.ProjectPage, error) {
	plan := scope.BuildProjectPlan(scope.ProjectQuery{
		Search:          in.Search,
		IncludeInactive: in.IncludeInactive && requester.Can(auth.CapCreateProjects),
		Page:            in.Page,
		PageSize:        in.Limit,
	})
	rows, total, err := s.store.Projects().List(ctx, plan)
	if err != nil {
		return nil, storageErr(s.log, "list projects failed", err)
	}
	return &domain.ProjectPage{Data: rows, Pagination: scope.NewPagination(plan.Page, total)}, nil
}

func (s *ProjectService) Get(ctx context.Context, requester auth.Identity, id string) (*domain.Project, error) {
	p, err := s.store.Projects().FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(s.log, "load project failed", err)
	}
	if p == nil || (!p.IsActive && !requester.Can(auth.CapCreateProjects)) {
		return nil, apperr.NotFound(msgProjectNotFound)
	}
	return p, nil
}

type ProjectInput struct {
	Name          string   `json:"name" binding:"required,max=191"`
	Description   string   `json:"description"`
	ReraProjectID string   `json:"reraProjectId" binding:"omitempty,max=64"`
	Possession    string   `json:"possession" binding:"omitempty,max=64"`
	Address       string   `json:"address" binding:"omitempty,max=255"`
	Street        string   `json:"street" binding:"omitempty,max=255"`
	Locality      string   `json:"locality" binding:"omitempty,max=128"`
	City          string   `json:"city" binding:"omitempty,max=128"`
	State         string   `json:"state" binding:"omitempty,max=64"`
	Country       string   `json:"country" binding:"omitempty,max=64"`
	Zip           string   `json:"zip" binding:"omitempty,max=16"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	IsActive      *bool    `json:"isActive"`
}

// Create 新项目默认启用
func (s *ProjectService) Create(ctx context.Context, actor auth.Identity, in ProjectInput) (*domain.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return nil, apperr.BadRequest("latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return nil, apperr.BadRequest("longitude must be between -180 and 180")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	now := s.now().UTC()
	p := &domain.Project{
		ID:            utils.NewID(),
		Name:          name,
		Description:   in.Description,
		ReraProjectID: strings.TrimSpace(in.ReraProjectID),
		Possession:    strings.TrimSpace(in.Possession),
		Address:       strings.TrimSpace(in.Address),
		Street:        strings.TrimSpace(in.Street),
		Locality:      strings.TrimSpace(in.Locality),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		Country:       strings.TrimSpace(in.Country),
		Zip:           strings.TrimSpace(in.Zip),
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		IsActive:      active,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Projects().Create(ctx, p); err != nil {
		return nil, mapRepoErr(s.log, "create project failed", err, "", "")
	}
	return p, nil
}
