package entity

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Pagination describes one page of a sorted result.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
	Limit   int   `json:"limit"`
}

// NormalizePage clamps page and limit to their accepted ranges.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// NewPagination computes page metadata for total matches.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Current: page,
		Pages:   pages,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1,
		Limit:   limit,
	}
}

// Offset is the number of records skipped before the page.
func Offset(page, limit int) int64 {
	return int64(page-1) * int64(limit)
}
