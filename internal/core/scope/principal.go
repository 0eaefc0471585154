package scope

import "strings"

type PrincipalQuery struct {
	Search   string
	Role     string
	Page     int
	PageSize int
}

type PrincipalPlan struct {
	Page  Page
	Rows  Statement
	Count Statement
}

// BuildPrincipalPlan lists principals; tombstoned rows are always excluded.
func BuildPrincipalPlan(q PrincipalQuery) PrincipalPlan {
	p := NormalizePage(q.Page, q.PageSize)
	b := New("users u").Where("u.deleted_at IS NULL")
	if s := normalizeSearch(q.Search); s != "" {
		like := ContainsPattern(s)
		b.Where("LOWER(u.name) LIKE ? OR LOWER(u.email) LIKE ? OR LOWER(u.phone) LIKE ?", like, like, like)
	}
	if r := strings.ToLower(strings.TrimSpace(q.Role)); r != "" {
		b.Where("u.role = ?", r)
	}
	return PrincipalPlan{
		Page: p,
		Rows: b.Select(SelectSpec{
			Columns: "u.*",
			OrderBy: []string{"u.created_at DESC", "u.id DESC"},
			Limit:   p.Limit,
			Offset:  p.Offset,
		}),
		Count: b.Count(),
	}
}
