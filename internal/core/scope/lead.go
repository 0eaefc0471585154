package scope

import (
	"errors"
	"strings"

	"estate-crm/internal/core/auth"
)

const MaxSearchLen = 100

var ErrNoRequester = errors.New("scope: requester identity is required")

// LeadQuery is the logical listing request.
type LeadQuery struct {
	Search    string
	Status    string
	Page      int
	PageSize  int
	Requester auth.Identity
}

// LeadPlan is the compiled form of a LeadQuery.
type LeadPlan struct {
	Search  string
	Status  string
	OwnerID string // 非空表示已追加归属谓词
	Page    Page

	Rows     Statement
	Count    Statement
	ByStatus Statement
}

// Owned reports whether the ownership predicate was applied.
func (p LeadPlan) Owned() bool { return p.OwnerID != "" }

const (
	leadFrom    = "contacts c"
	leadColumns = "c.*, u.name AS agent_name"
	leadJoin    = "LEFT JOIN users u ON u.id = c.assigned_agent_id"
)

var leadOrder = []string{"c.created_at DESC", "c.id DESC"}

// BuildLeadPlan compiles q. For a scoped role the ownership predicate is appended
// unconditionally, after search and status, whatever else was supplied.
func BuildLeadPlan(q LeadQuery) (LeadPlan, error) {
	plan, b, err := leadBuilder(q)
	if err != nil {
		return LeadPlan{}, err
	}
	plan.Page = NormalizePage(q.Page, q.PageSize)
	plan.Rows = b.Select(SelectSpec{
		Columns: leadColumns,
		Join:    leadJoin,
		OrderBy: leadOrder,
		Limit:   plan.Page.Limit,
		Offset:  plan.Page.Offset,
	})
	plan.Count = b.Count()
	plan.ByStatus = b.GroupCount("c.status")
	return plan, nil
}

// MaxExportRows 单次导出上限
const MaxExportRows = 5000

// BuildLeadExportPlan keeps the listing predicates but fetches up to limit rows from
// the first one; Page/PageSize in q are ignored.
func BuildLeadExportPlan(q LeadQuery, limit int) (LeadPlan, error) {
	plan, b, err := leadBuilder(q)
	if err != nil {
		return LeadPlan{}, err
	}
	if limit < 1 || limit > MaxExportRows {
		limit = MaxExportRows
	}
	plan.Page = Page{Page: 1, Limit: limit}
	plan.Rows = b.Select(SelectSpec{
		Columns: leadColumns,
		Join:    leadJoin,
		OrderBy: leadOrder,
		Limit:   limit,
	})
	plan.Count = b.Count()
	plan.ByStatus = b.GroupCount("c.status")
	return plan, nil
}

func leadBuilder(q LeadQuery) (LeadPlan, *Builder, error) {
	if strings.TrimSpace(q.Requester.ID) == "" || !q.Requester.Role.Valid() {
		return LeadPlan{}, nil, ErrNoRequester
	}
	plan := LeadPlan{
		Search: normalizeSearch(q.Search),
		Status: strings.ToLower(strings.TrimSpace(q.Status)),
	}
	b := New(leadFrom)
	if plan.Search != "" {
		like := ContainsPattern(plan.Search)
		b.Where("LOWER(c.name) LIKE ? OR LOWER(c.email) LIKE ? OR LOWER(c.phone) LIKE ?", like, like, like)
	}
	if plan.Status != "" {
		b.Where("c.status = ?", plan.Status)
	}
	if q.Requester.Role.Scoped() {
		plan.OwnerID = q.Requester.ID
		b.Where("c.assigned_agent_id = ?", plan.OwnerID)
	}
	return plan, b, nil
}

// LeadByID fetches one lead with the same projection as listings.
func LeadByID(id string) Statement {
	return New(leadFrom).Where("c.id = ?", id).Select(SelectSpec{
		Columns: leadColumns,
		Join:    leadJoin,
		Limit:   1,
	})
}

// LeadVisible 单条记录的同一可见性规则
func LeadVisible(requester auth.Identity, assignedAgentID *string) bool {
	if !requester.Role.Scoped() {
		return requester.Role.Valid()
	}
	return assignedAgentID != nil && *assignedAgentID == requester.ID
}

func normalizeSearch(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > MaxSearchLen {
		s = string(r[:MaxSearchLen])
	}
	return s
}
