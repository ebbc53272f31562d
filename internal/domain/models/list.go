package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListParams carries the pagination and filtering conventions shared by list
// endpoints.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

// Normalize clamps page and limit to sane values.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Skip is the number of records preceding the page.
func (p ListParams) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Filter returns a filter value or "".
func (p ListParams) Filter(key string) string {
	if p.Filters == nil {
		return ""
	}
	return p.Filters[key]
}

// Pagination describes the returned page.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// Page is a page of results.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPage assembles a page from the normalized params and total count.
func NewPage[T any](items []T, params ListParams, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int64(0)
	if params.Limit > 0 {
		pages = (total + int64(params.Limit) - 1) / int64(params.Limit)
	}
	return Page[T]{
		Data: items,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pages,
		},
	}
}
