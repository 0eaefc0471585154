// Package memstore is an in-memory domain.Store. Transactions run on a snapshot,
// so a failed step leaves no partial writes behind.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"estate-crm/internal/core/scope"
	"estate-crm/internal/domain"
)

// State is the committed state; transactions work on a deep copy and swap it in on success.
type State struct {
	Principals map[string]domain.Principal
	Roles      map[string]domain.RoleAssignment
	Leads      map[string]domain.Lead
	Activities []domain.LeadActivity
	Properties map[string]domain.Property
	Projects   map[string]domain.Project
}

func (d *State) clone() *State {
	c := &State{
		Principals: make(map[string]domain.Principal, len(d.Principals)),
		Roles:      make(map[string]domain.RoleAssignment, len(d.Roles)),
		Leads:      make(map[string]domain.Lead, len(d.Leads)),
		Activities: append([]domain.LeadActivity(nil), d.Activities...),
		Properties: make(map[string]domain.Property, len(d.Properties)),
		Projects:   make(map[string]domain.Project, len(d.Projects)),
	}
	for k, v := range d.Principals {
		c.Principals[k] = v
	}
	for k, v := range d.Roles {
		c.Roles[k] = v
	}
	for k, v := range d.Leads {
		c.Leads[k] = v
	}
	for k, v := range d.Properties {
		c.Properties[k] = v
	}
	for k, v := range d.Projects {
		c.Projects[k] = v
	}
	return c
}

type Store struct {
	mu         *sync.Mutex
	State      *State
	FailAppend error
	FailLeads  error
}

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		State: &State{
			Principals: map[string]domain.Principal{},
			Roles:      map[string]domain.RoleAssignment{},
			Leads:      map[string]domain.Lead{},
			Properties: map[string]domain.Property{},
			Projects:   map[string]domain.Project{},
		},
	}
}

// PutPrincipal / PutLead 直接写入已提交状态，用于准备数据
func (m *Store) PutPrincipal(p domain.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State.Principals[p.ID] = p
}

func (m *Store) PutLead(l domain.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State.Leads[l.ID] = l
}

func (m *Store) Principals() domain.PrincipalRepository { return memPrincipals{m} }
func (m *Store) Leads() domain.LeadRepository           { return memLeads{m} }
func (m *Store) Activities() domain.ActivityRepository  { return memActivities{m} }
func (m *Store) Properties() domain.PropertyRepository  { return memProperties{m} }
func (m *Store) Projects() domain.ProjectRepository     { return memProjects{m} }

func (m *Store) PutProperty(p domain.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State.Properties[p.ID] = p
}

func (m *Store) PutProject(p domain.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State.Projects[p.ID] = p
}

// Transaction holds the store lock until commit, so transactions are serialized and
// a commit never overwrites writes made while fn ran. fn must only use tx.
func (m *Store) Transaction(_ context.Context, fn func(tx domain.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.State.clone()
	tx := &Store{mu: &sync.Mutex{}, State: snapshot, FailAppend: m.FailAppend, FailLeads: m.FailLeads}
	if err := fn(tx); err != nil {
		return err
	}
	*m.State = *snapshot
	return nil
}

func (m *Store) ActivitiesFor(contactID string) []domain.LeadActivity {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LeadActivity
	for _, a := range m.State.Activities {
		if a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out
}

type memPrincipals struct{ m *Store }

func (r memPrincipals) Create(_ context.Context, p *domain.Principal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, o := range r.m.State.Principals {
		if o.Email == p.Email {
			return domain.ErrDuplicate
		}
	}
	r.m.State.Principals[p.ID] = *p
	return nil
}

func (r memPrincipals) FindByID(_ context.Context, id string) (*domain.Principal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.State.Principals[id]
	if !ok || p.DeletedAt.Valid {
		return nil, nil
	}
	return &p, nil
}

func (r memPrincipals) FindByEmail(_ context.Context, email string) (*domain.Principal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.State.Principals {
		if p.Email == email && !p.DeletedAt.Valid {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPrincipals) List(_ context.Context, f domain.PrincipalFilter) ([]domain.Principal, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	page := scope.NormalizePage(f.Page, f.PageSize)
	term := strings.ToLower(strings.TrimSpace(f.Search))
	var all []domain.Principal
	for _, p := range r.m.State.Principals {
		if p.DeletedAt.Valid {
			continue
		}
		if f.Role != "" && string(p.Role) != strings.ToLower(f.Role) {
			continue
		}
		if term != "" && !containsAny(term, p.Name, p.Email, p.Phone) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page), int64(len(all)), nil
}

func (r memPrincipals) Update(_ context.Context, p *domain.Principal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.State.Principals[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return domain.ErrNotFound
	}
	for _, o := range r.m.State.Principals {
		if o.ID != p.ID && o.Email == p.Email {
			return domain.ErrDuplicate
		}
	}
	cur.Email, cur.Name, cur.Phone, cur.Role, cur.IsActive, cur.UpdatedAt = p.Email, p.Name, p.Phone, p.Role, p.IsActive, p.UpdatedAt
	r.m.State.Principals[p.ID] = cur
	return nil
}

func (r memPrincipals) UpdatePassword(_ context.Context, id, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.State.Principals[id]
	if !ok || cur.DeletedAt.Valid {
		return domain.ErrNotFound
	}
	cur.PasswordHash = hash
	r.m.State.Principals[id] = cur
	return nil
}

func (r memPrincipals) SoftDelete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.State.Principals[id]
	if !ok || cur.DeletedAt.Valid {
		return domain.ErrNotFound
	}
	cur.DeletedAt.Valid = true
	cur.DeletedAt.Time = cur.UpdatedAt
	r.m.State.Principals[id] = cur
	return nil
}

func (r memPrincipals) AssignRole(_ context.Context, a *domain.RoleAssignment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.State.Roles[a.UserID] = *a
	return nil
}

type memLeads struct{ m *Store }

func (r memLeads) Create(_ context.Context, l *domain.Lead) error {
	if r.m.FailLeads != nil {
		return r.m.FailLeads
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.State.Leads[l.ID] = *l
	return nil
}

func (r memLeads) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.State.Leads[id]
	if !ok {
		return nil, nil
	}
	r.withAgentName(&l)
	return &l, nil
}

func (r memLeads) Update(_ context.Context, l *domain.Lead) error {
	if r.m.FailLeads != nil {
		return r.m.FailLeads
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.State.Leads[l.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *l
	cp.AgentName = nil
	r.m.State.Leads[l.ID] = cp
	return nil
}

// matches evaluates the plan's predicates the way the SQL does.
func matches(plan scope.LeadPlan, l domain.Lead) bool {
	if plan.Search != "" && !containsAny(strings.ToLower(plan.Search), l.Name, l.Email, l.Phone) {
		return false
	}
	if plan.Status != "" && string(l.Status) != plan.Status {
		return false
	}
	if plan.OwnerID != "" && (l.AssignedAgentID == nil || *l.AssignedAgentID != plan.OwnerID) {
		return false
	}
	return true
}

func (r memLeads) List(_ context.Context, plan scope.LeadPlan) ([]domain.Lead, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []domain.Lead
	for _, l := range r.m.State.Leads {
		if matches(plan, l) {
			r.withAgentName(&l)
			all = append(all, l)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, plan.Page), int64(len(all)), nil
}

func (r memLeads) CountByStatus(_ context.Context, plan scope.LeadPlan) ([]domain.StatusCount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	counts := map[string]int64{}
	for _, l := range r.m.State.Leads {
		if matches(plan, l) {
			counts[string(l.Status)]++
		}
	}
	var out []domain.StatusCount
	for k, v := range counts {
		out = append(out, domain.StatusCount{Value: k, Total: v})
	}
	return out, nil
}

func (r memLeads) withAgentName(l *domain.Lead) {
	if l.AssignedAgentID == nil {
		return
	}
	if p, ok := r.m.State.Principals[*l.AssignedAgentID]; ok {
		name := p.Name
		l.AgentName = &name
	}
}

type memActivities struct{ m *Store }

func (r memActivities) Append(_ context.Context, a *domain.LeadActivity) error {
	if r.m.FailAppend != nil {
		return r.m.FailAppend
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.State.Activities = append(r.m.State.Activities, *a)
	return nil
}

func (r memActivities) ListByContact(_ context.Context, contactID string) ([]domain.LeadActivity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.LeadActivity{}
	for _, a := range r.m.State.Activities {
		if a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memProperties struct{ m *Store }

func (r memProperties) Create(_ context.Context, p *domain.Property) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.State.Properties[p.ID] = *p
	return nil
}

func (r memProperties) List(_ context.Context, plan scope.PropertyPlan) ([]domain.Property, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	term := strings.ToLower(plan.Search)
	var all []domain.Property
	for _, p := range r.m.State.Properties {
		switch {
		case term != "" && !containsAny(term, p.Address, p.City):
		case plan.Status != "" && string(p.Status) != plan.Status:
		case plan.ProjectID != "" && (p.ProjectID == nil || *p.ProjectID != plan.ProjectID):
		case plan.OwnerID != "" && (p.AgentID == nil || *p.AgentID != plan.OwnerID):
		default:
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, plan.Page), int64(len(all)), nil
}

type memProjects struct{ m *Store }

func (r memProjects) Create(_ context.Context, p *domain.Project) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.State.Projects[p.ID] = *p
	return nil
}

func (r memProjects) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.State.Projects[id]
	if !ok {
		return nil, nil
	}
	r.withCounts(&p)
	return &p, nil
}

func (r memProjects) List(_ context.Context, plan scope.ProjectPlan) ([]domain.Project, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	term := strings.ToLower(plan.Search)
	var all []domain.Project
	for _, p := range r.m.State.Projects {
		if plan.ActiveOnly && !p.IsActive {
			continue
		}
		if term != "" && !containsAny(term, p.Name, p.City, p.Locality) {
			continue
		}
		r.withCounts(&p)
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, plan.Page), int64(len(all)), nil
}

func (r memProjects) withCounts(p *domain.Project) {
	p.TotalProperties, p.SoldProperties = 0, 0
	for _, pr := range r.m.State.Properties {
		if pr.ProjectID != nil && *pr.ProjectID == p.ID {
			p.TotalProperties++
			if pr.Status == domain.PropertySold {
				p.SoldProperties++
			}
		}
	}
}

func containsAny(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func paginate[T any](all []T, p scope.Page) []T {
	out := make([]T, 0, p.Limit)
	if p.Offset >= len(all) {
		return out
	}
	end := p.Offset + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return append(out, all[p.Offset:end]...)
}
