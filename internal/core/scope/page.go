package scope

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Page struct {
	Page   int
	Limit  int
	Offset int
}

// NormalizePage clamps page to >= 1 and size to [1, MaxPageSize]; zero size means default.
// page is also capped so the offset cannot overflow; such a page is simply past the end.
func NormalizePage(page, size int) Page {
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	return Page{Page: page, Limit: size, Offset: (page - 1) * size}
}

// Pagination 响应里的分页元数据
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(p Page, total int64) Pagination {
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: Pages(total, p.Limit)}
}

// Pages = ceil(total / limit)
func Pages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
