package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"estate-crm/internal/core/apperr"
	"estate-crm/internal/core/auth"
	"estate-crm/internal/core/cache"
	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
	"estate-crm/pkg/utils"
)

const msgLeadNotFound = "Lead not found"

type LeadService struct {
	store    domain.Store
	rec      *ActivityRecorder
	cache    *cache.Cache
	statsTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewLeadService wires the lead use cases; c may be nil (stats are then computed per call).
func NewLeadService(store domain.Store, rec *ActivityRecorder, c *cache.Cache, statsTTL time.Duration, l *zap.Logger) *LeadService {
	return &LeadService{store: store, rec: rec, cache: c, statsTTL: statsTTL, log: l, now: time.Now}
}

type LeadListInput struct {
	Search string
	Status string
	Page   int
	Limit  int
}

// List returns one page of leads visible to the requester.
func (s *LeadService) List(ctx context.Context, requester auth.Identity, in LeadListInput) (*domain.LeadPage, error) {
	if in.Status != "" && !domain.LeadStatus(strings.ToLower(strings.TrimSpace(in.Status))).Valid() {
		return nil, apperr.BadRequest("status must be one of: " + statusList())
	}
	plan, err := scope.BuildLeadPlan(scope.LeadQuery{
		Search:    in.Search,
		Status:    in.Status,
		Page:      in.Page,
		PageSize:  in.Limit,
		Requester: requester,
	})
	if err != nil {
		return nil, apperr.InvalidCredential("Invalid or expired token")
	}
	rows, total, err := s.store.Leads().List(ctx, plan)
	if err != nil {
		return nil, storageErr(s.log, "list leads failed", err)
	}
	return &domain.LeadPage{Data: rows, Pagination: scope.NewPagination(plan.Page, total)}, nil
}

// Export returns every lead matching the filter, capped at scope.MaxExportRows.
// The requester's scope applies exactly as in List.
func (s *LeadService) Export(ctx context.Context, requester auth.Identity, in LeadListInput) (*domain.LeadExport, error) {
	if in.Status != "" && !domain.LeadStatus(strings.ToLower(strings.TrimSpace(in.Status))).Valid() {
		return nil, apperr.BadRequest("status must be one of: " + statusList())
	}
	plan, err := scope.BuildLeadExportPlan(scope.LeadQuery{
		Search:    in.Search,
		Status:    in.Status,
		Requester: requester,
	}, in.Limit)
	if err != nil {
		return nil, apperr.InvalidCredential("Invalid or expired token")
	}
	rows, total, err := s.store.Leads().List(ctx, plan)
	if err != nil {
		return nil, storageErr(s.log, "export leads failed", err)
	}
	s.log.Info("leads exported", zap.String("uid", requester.ID), zap.Int("rows", len(rows)), zap.Int64("total", total))
	return &domain.LeadExport{Data: rows, Total: total, Truncated: total > int64(len(rows))}, nil
}

// Get hides leads outside the requester's scope behind the same 404 as missing ones.
func (s *LeadService) Get(ctx context.Context, requester auth.Identity, leadID string) (*domain.Lead, error) {
	l, err := s.store.Leads().FindByID(ctx, leadID)
	if err != nil {
		return nil, storageErr(s.log, "load lead failed", err)
	}
	if l == nil || !scope.LeadVisible(requester, l.AssignedAgentID) {
		return nil, apperr.NotFound(msgLeadNotFound)
	}
	return l, nil
}

func (s *LeadService) Activities(ctx context.Context, requester auth.Identity, leadID string) ([]domain.LeadActivity, error) {
	if _, err := s.Get(ctx, requester, leadID); err != nil {
		return nil, err
	}
	out, err := s.store.Activities().ListByContact(ctx, leadID)
	if err != nil {
		return nil, storageErr(s.log, "list lead activities failed", err)
	}
	return out, nil
}

type LeadInput struct {
	Name            string   `json:"name" binding:"required,max=128"`
	Email           string   `json:"email" binding:"omitempty,email,max=191"`
	Phone           string   `json:"phone" binding:"omitempty,max=32"`
	Source          string   `json:"source" binding:"omitempty,max=64"`
	Type            string   `json:"type"`
	Status          string   `json:"status"`
	AssignedAgentID *string  `json:"assignedAgentId"`
	Budget          *float64 `json:"budget"`
	Requirements    string   `json:"requirements"`
	Notes           string   `json:"notes"`
}

// Create inserts the lead and its "created" activity in one transaction.
func (s *LeadService) Create(ctx context.Context, actor auth.Identity, in LeadInput) (*domain.Lead, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	typ := domain.TypeBuyer
	if in.Type != "" {
		typ = domain.LeadType(strings.ToLower(in.Type))
		if !typ.Valid() {
			return nil, apperr.BadRequest("type must be one of: buyer, seller, tenant, investor")
		}
	}
	status := domain.StatusNew
	if in.Status != "" {
		status = domain.LeadStatus(strings.ToLower(in.Status))
		if !status.Valid() {
			return nil, apperr.BadRequest("status must be one of: " + statusList())
		}
	}

	assignee, err := s.resolveCreateAssignee(ctx, actor, in.AssignedAgentID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	lead := &domain.Lead{
		ID:              utils.NewID(),
		Name:            name,
		Email:           NormalizeEmail(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Status:          status,
		Type:            typ,
		AssignedAgentID: assignee,
		Source:          strings.TrimSpace(in.Source),
		Budget:          in.Budget,
		Requirements:    in.Requirements,
		Notes:           in.Notes,
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if err := tx.Leads().Create(ctx, lead); err != nil {
			return err
		}
		_, err := s.rec.Record(ctx, tx.Activities(), ActivityEvent{
			ContactID:   lead.ID,
			Type:        domain.ActivityCreated,
			Description: "Lead created",
			ActorID:     actor.ID,
		})
		return err
	})
	if err != nil {
		return nil, s.writeErr("create lead failed", err)
	}
	s.invalidateStats(ctx, nil, lead.AssignedAgentID)
	return lead, nil
}

func (s *LeadService) resolveCreateAssignee(ctx context.Context, actor auth.Identity, requested *string) (*string, error) {
	if actor.Role.Scoped() {
		if requested != nil && *requested != "" && *requested != actor.ID {
			return nil, apperr.Forbidden("agents can only create leads assigned to themselves")
		}
		self := actor.ID
		return &self, nil
	}
	if requested == nil || *requested == "" {
		return nil, nil
	}
	p, err := s.assignee(ctx, *requested)
	if err != nil {
		return nil, err
	}
	return &p.ID, nil
}

// assignee 必须是在职的 agent 或 manager
func (s *LeadService) assignee(ctx context.Context, id string) (*domain.Principal, error) {
	p, err := s.store.Principals().FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(s.log, "load assignee failed", err)
	}
	if p == nil || !p.CanSignIn() || (p.Role != auth.RoleAgent && p.Role != auth.RoleManager) {
		return nil, apperr.BadRequest("assignedAgentId must reference an active agent or manager")
	}
	return p, nil
}

type LeadUpdate struct {
	Name         *string  `json:"name" binding:"omitempty,max=128"`
	Email        *string  `json:"email" binding:"omitempty,email,max=191"`
	Phone        *string  `json:"phone" binding:"omitempty,max=32"`
	Source       *string  `json:"source" binding:"omitempty,max=64"`
	Type         *string  `json:"type"`
	Status       *string  `json:"status"`
	Budget       *float64 `json:"budget"`
	Requirements *string  `json:"requirements"`
	Notes        *string  `json:"notes"`
}

type change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Update applies the present fields. A real change records "updated" (and
// "status_changed" when the status moved) in the same transaction as the write.
func (s *LeadService) Update(ctx context.Context, actor auth.Identity, leadID string, in LeadUpdate) (*domain.Lead, error) {
	lead, err := s.Get(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	before := *lead
	diff := map[string]change{}

	setStr := func(field string, dst *string, v *string, normalize func(string) string) {
		if v == nil {
			return
		}
		nv := normalize(*v)
		if nv != *dst {
			diff[field] = change{From: *dst, To: nv}
			*dst = nv
		}
	}
	setStr("name", &lead.Name, in.Name, strings.TrimSpace)
	setStr("email", &lead.Email, in.Email, NormalizeEmail)
	setStr("phone", &lead.Phone, in.Phone, strings.TrimSpace)
	setStr("source", &lead.Source, in.Source, strings.TrimSpace)
	setStr("requirements", &lead.Requirements, in.Requirements, keep)
	setStr("notes", &lead.Notes, in.Notes, keep)
	if lead.Name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	if in.Type != nil {
		t := domain.LeadType(strings.ToLower(*in.Type))
		if !t.Valid() {
			return nil, apperr.BadRequest("type must be one of: buyer, seller, tenant, investor")
		}
		if t != lead.Type {
			diff["type"] = change{From: lead.Type, To: t}
			lead.Type = t
		}
	}
	if in.Status != nil {
		st := domain.LeadStatus(strings.ToLower(*in.Status))
		if !st.Valid() {
			return nil, apperr.BadRequest("status must be one of: " + statusList())
		}
		if st != lead.Status {
			diff["status"] = change{From: lead.Status, To: st}
			lead.Status = st
		}
	}
	if in.Budget != nil && (lead.Budget == nil || *lead.Budget != *in.Budget) {
		diff["budget"] = change{From: lead.Budget, To: *in.Budget}
		b := *in.Budget
		lead.Budget = &b
	}
	if len(diff) == 0 {
		return lead, nil
	}
	lead.UpdatedAt = s.now().UTC()

	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if err := tx.Leads().Update(ctx, lead); err != nil {
			return err
		}
		if _, err := s.rec.Record(ctx, tx.Activities(), ActivityEvent{
			ContactID:   lead.ID,
			Type:        domain.ActivityUpdated,
			Description: "Lead updated",
			ActorID:     actor.ID,
			Metadata:    map[string]any{"changes": diff},
		}); err != nil {
			return err
		}
		if c, ok := diff["status"]; ok {
			_, err := s.rec.Record(ctx, tx.Activities(), ActivityEvent{
				ContactID:   lead.ID,
				Type:        domain.ActivityStatusChanged,
				Description: fmt.Sprintf("Status changed from %s to %s", c.From, c.To),
				ActorID:     actor.ID,
				Metadata:    map[string]any{"from": c.From, "to": c.To},
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.writeErr("update lead failed", err)
	}
	if _, ok := diff["status"]; ok {
		s.invalidateStats(ctx, before.AssignedAgentID, lead.AssignedAgentID)
	}
	return lead, nil
}

// Assign moves the lead to another agent and records an "assigned" activity.
func (s *LeadService) Assign(ctx context.Context, actor auth.Identity, leadID, agentID string) (*domain.Lead, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, apperr.BadRequest("agentId is required")
	}
	lead, err := s.Get(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	agent, err := s.assignee(ctx, agentID)
	if err != nil {
		return nil, err
	}
	prev := lead.AssignedAgentID
	if prev != nil && *prev == agent.ID {
		return lead, nil
	}
	lead.AssignedAgentID = &agent.ID
	lead.AgentName = &agent.Name
	lead.UpdatedAt = s.now().UTC()

	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if err := tx.Leads().Update(ctx, lead); err != nil {
			return err
		}
		_, err := s.rec.Record(ctx, tx.Activities(), ActivityEvent{
			ContactID:   lead.ID,
			Type:        domain.ActivityAssigned,
			Description: "Lead assigned to " + agent.Name,
			ActorID:     actor.ID,
			Metadata:    map[string]any{"from": prev, "to": agent.ID},
		})
		return err
	})
	if err != nil {
		return nil, s.writeErr("assign lead failed", err)
	}
	s.invalidateStats(ctx, prev, lead.AssignedAgentID)
	return lead, nil
}

// Stats counts leads per status within the requester's scope.
func (s *LeadService) Stats(ctx context.Context, requester auth.Identity) (*domain.LeadStats, error) {
	plan, err := scope.BuildLeadPlan(scope.LeadQuery{Requester: requester})
	if err != nil {
		return nil, apperr.InvalidCredential("Invalid or expired token")
	}
	load := func(ctx context.Context) (*domain.LeadStats, error) {
		counts, err := s.store.Leads().CountByStatus(ctx, plan)
		if err != nil {
			return nil, err
		}
		out := &domain.LeadStats{ByStatus: make(map[domain.LeadStatus]int64, len(domain.LeadStatuses))}
		for _, st := range domain.LeadStatuses {
			out.ByStatus[st] = 0
		}
		for _, c := range counts {
			out.ByStatus[domain.LeadStatus(c.Value)] += c.Total
			out.Total += c.Total
		}
		return out, nil
	}
	stats, err := cache.GetOrLoadJSON(s.cache, ctx, statsKey(plan.OwnerID), s.statsTTL, load)
	if err != nil {
		return nil, storageErr(s.log, "lead stats failed", err)
	}
	return stats, nil
}

const statsKeyAll = "crm:lead_stats:all"

func statsKey(ownerID string) string {
	if ownerID == "" {
		return statsKeyAll
	}
	return "crm:lead_stats:agent:" + ownerID
}

func (s *LeadService) invalidateStats(ctx context.Context, owners ...*string) {
	if !s.cache.Enabled() {
		return
	}
	keys := []string{statsKeyAll}
	for _, o := range owners {
		if o != nil && *o != "" {
			keys = append(keys, statsKey(*o))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("lead stats invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// writeErr 活动追加失败已由 recorder 单独记录，这里只记录主写入失败
func (s *LeadService) writeErr(msg string, err error) error {
	if errors.Is(err, ErrActivityAppend) {
		return apperr.Storage(err)
	}
	return mapRepoErr(s.log, msg, err, msgLeadNotFound, "")
}

func statusList() string {
	s := make([]string, len(domain.LeadStatuses))
	for i, st := range domain.LeadStatuses {
		s[i] = string(st)
	}
	return strings.Join(s, ", ")
}

func keep(s string) string { return s }
