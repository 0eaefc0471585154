package scope

import "strings"

type ProjectQuery struct {
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
}

type ProjectPlan struct {
	Search     string
	ActiveOnly bool
	Page       Page

	Rows  Statement
	Count Statement
}

// 子查询汇总房源数，计数语句不需要 GROUP BY
const projectColumns = "pr.*, " +
	"(SELECT COUNT(*) FROM properties p WHERE p.project_id = pr.id) AS total_properties, " +
	"(SELECT COUNT(*) FROM properties p WHERE p.project_id = pr.id AND p.status = 'sold') AS sold_properties"

// BuildProjectPlan lists projects with their property counts; inactive ones are hidden unless asked for.
func BuildProjectPlan(q ProjectQuery) ProjectPlan {
	p := NormalizePage(q.Page, q.PageSize)
	search := normalizeSearch(q.Search)
	b := New("projects pr")
	if !q.IncludeInactive {
		b.Where("pr.is_active = ?", true)
	}
	if search != "" {
		like := ContainsPattern(search)
		b.Where("LOWER(pr.name) LIKE ? OR LOWER(pr.city) LIKE ? OR LOWER(pr.locality) LIKE ?", like, like, like)
	}
	return ProjectPlan{
		Search:     search,
		ActiveOnly: !q.IncludeInactive,
		Page:       p,
		Rows: b.Select(SelectSpec{
			Columns: projectColumns,
			OrderBy: []string{"pr.created_at DESC", "pr.id DESC"},
			Limit:   p.Limit,
			Offset:  p.Offset,
		}),
		Count: b.Count(),
	}
}

// ProjectByID 单条查询，投影与列表一致
func ProjectByID(id string) Statement {
	return New("projects pr").Where("pr.id = ?", strings.TrimSpace(id)).Select(SelectSpec{
		Columns: projectColumns,
		Limit:   1,
	})
}
