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

type PropertyService struct {
	store domain.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewPropertyService(store domain.Store, l *zap.Logger) *PropertyService {
	return &PropertyService{store: store, log: l, now: time.Now}
}

type PropertyListInput struct {
	Search    string
	Status    string
	ProjectID string
	Page      int
	Limit     int
}

// List returns one page of properties; agents see only the ones they own.
func (s *PropertyService) List(ctx context.Context, requester auth.Identity, in PropertyListInput) (*domain.PropertyPage, error) {
	if in.Status != "" && !domain.PropertyStatus(strings.ToLower(strings.TrimSpace(in.Status))).Valid() {
		return nil, apperr.BadRequest("status must be one of: " + propertyStatusList())
	}
	plan, err := scope.BuildPropertyPlan(scope.PropertyQuery{
		Search:    in.Search,
		Status:    in.Status,
		ProjectID: in.ProjectID,
		Page:      in.Page,
		PageSize:  in.Limit,
		Requester: requester,
	})
	if err != nil {
		return nil, apperr.InvalidCredential("Invalid or expired token")
	}
	rows, total, err := s.store.Properties().List(ctx, plan)
	if err != nil {
		return nil, storageErr(s.log, "list properties failed", err)
	}
	return &domain.PropertyPage{Data: rows, Pagination: scope.NewPagination(plan.Page, total)}, nil
}

type PropertyInput struct {
	Address     string   `json:"address" binding:"required,max=255"`
	City        string   `json:"city" binding:"required,max=128"`
	State       string   `json:"state" binding:"required,max=64"`
	ZipCode     string   `json:"zipCode" binding:"omitempty,max=16"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Price       *float64 `json:"price"`
	Beds        *int     `json:"beds"`
	Baths       *float64 `json:"baths"`
	Sqft        *int     `json:"sqft"`
	Description string   `json:"description"`
	AgentID     *string  `json:"agentId"`
	ProjectID   *string  `json:"projectId"`
}

func (s *PropertyService) Create(ctx context.Context, actor auth.Identity, in PropertyInput) (*domain.Property, error) {
	address, city, state := strings.TrimSpace(in.Address), strings.TrimSpace(in.City), strings.TrimSpace(in.State)
	if address == "" || city == "" || state == "" {
		return nil, apperr.BadRequest("address, city and state are required")
	}
	typ := domain.PropertyHouse
	if in.Type != "" {
		typ = domain.PropertyType(strings.ToLower(strings.TrimSpace(in.Type)))
		if !typ.Valid() {
			return nil, apperr.BadRequest("type must be one of: house, condo, townhouse, apartment, land")
		}
	}
	status := domain.PropertyAvailable
	if in.Status != "" {
		status = domain.PropertyStatus(strings.ToLower(strings.TrimSpace(in.Status)))
		if !status.Valid() {
			return nil, apperr.BadRequest("status must be one of: " + propertyStatusList())
		}
	}
	if negative(in.Price) || negative(in.Baths) || (in.Beds != nil && *in.Beds < 0) || (in.Sqft != nil && *in.Sqft < 0) {
		return nil, apperr.BadRequest("price, beds, baths and sqft cannot be negative")
	}

	owner, err := s.resolveOwner(ctx, actor, in.AgentID)
	if err != nil {
		return nil, err
	}
	projectID, err := s.resolveProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &domain.Property{
		ID:          utils.NewID(),
		Address:     address,
		City:        city,
		State:       state,
		ZipCode:     strings.TrimSpace(in.ZipCode),
		Type:        typ,
		Price:       in.Price,
		Beds:        in.Beds,
		Baths:       in.Baths,
		Sqft:        in.Sqft,
		Description: in.Description,
		Status:      status,
		AgentID:     owner,
		ProjectID:   projectID,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Properties().Create(ctx, p); err != nil {
		return nil, mapRepoErr(s.log, "create property failed", err, "", "")
	}
	return p, nil
}

// resolveOwner agent 新建的房源总归自己；其他角色可指定在职 agent/manager，或留空
func (s *PropertyService) resolveOwner(ctx context.Context, actor auth.Identity, requested *string) (*string, error) {
	if actor.Role.Scoped() {
		if requested != nil && *requested != "" && *requested != actor.ID {
			return nil, apperr.Forbidden("agents can only create properties they own")
		}
		self := actor.ID
		return &self, nil
	}
	if requested == nil || strings.TrimSpace(*requested) == "" {
		return nil, nil
	}
	p, err := s.store.Principals().FindByID(ctx, strings.TrimSpace(*requested))
	if err != nil {
		return nil, storageErr(s.log, "load property agent failed", err)
	}
	if p == nil || !p.CanSignIn() || (p.Role != auth.RoleAgent && p.Role != auth.RoleManager) {
		return nil, apperr.BadRequest("agentId must reference an active agent or manager")
	}
	return &p.ID, nil
}

func (s *PropertyService) resolveProject(ctx context.Context, requested *string) (*string, error) {
	if requested == nil || strings.TrimSpace(*requested) == "" {
		return nil, nil
	}
	pr, err := s.store.Projects().FindByID(ctx, strings.TrimSpace(*requested))
	if err != nil {
		return nil, storageErr(s.log, "load project failed", err)
	}
	if pr == nil || !pr.IsActive {
		return nil, apperr.BadRequest("projectId must reference an active project")
	}
	return &pr.ID, nil
}

func negative(v *float64) bool { return v != nil && *v < 0 }

func propertyStatusList() string {
	s := make([]string, len(domain.PropertyStatuses))
	for i, st := range domain.PropertyStatuses {
		s[i] = string(st)
	}
	return strings.Join(s, ", ")
}
