package scope

import (
	"strings"

	"estate-crm/internal/core/auth"
)

type PropertyQuery struct {
	Search    string
	Status    string
	ProjectID string
	Page      int
	PageSize  int
	Requester auth.Identity
}

// PropertyPlan 与 LeadPlan 同构：归属谓词总是最后追加
type PropertyPlan struct {
	Search    string
	Status    string
	ProjectID string
	OwnerID   string
	Page      Page

	Rows  Statement
	Count Statement
}

func (p PropertyPlan) Owned() bool { return p.OwnerID != "" }

// BuildPropertyPlan searches address and city; agents only ever see properties they own.
func BuildPropertyPlan(q PropertyQuery) (PropertyPlan, error) {
	if strings.TrimSpace(q.Requester.ID) == "" || !q.Requester.Role.Valid() {
		return PropertyPlan{}, ErrNoRequester
	}
	plan := PropertyPlan{
		Search:    normalizeSearch(q.Search),
		Status:    strings.ToLower(strings.TrimSpace(q.Status)),
		ProjectID: strings.TrimSpace(q.ProjectID),
		Page:      NormalizePage(q.Page, q.PageSize),
	}

	b := New("properties p")
	if plan.Search != "" {
		like := ContainsPattern(plan.Search)
		b.Where("LOWER(p.address) LIKE ? OR LOWER(p.city) LIKE ?", like, like)
	}
	if plan.Status != "" {
		b.Where("p.status = ?", plan.Status)
	}
	if plan.ProjectID != "" {
		b.Where("p.project_id = ?", plan.ProjectID)
	}
	if q.Requester.Role.Scoped() {
		plan.OwnerID = q.Requester.ID
		b.Where("p.agent_id = ?", plan.OwnerID)
	}

	plan.Rows = b.Select(SelectSpec{
		Columns: "p.*",
		OrderBy: []string{"p.created_at DESC", "p.id DESC"},
		Limit:   plan.Page.Limit,
		Offset:  plan.Page.Offset,
	})
	plan.Count = b.Count()
	return plan, nil
}
