package model

type BaseResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type PageQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// Normalize clamps the query to a valid page.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
	HasNextPage  bool  `json:"has_next_page"`
	HasPrevPage  bool  `json:"has_prev_page"`
	NextPage     *int  `json:"next_page"`
	PrevPage     *int  `json:"prev_page"`
}

func NewPagination(q PageQuery, total int64) *Pagination {
	q = q.Normalize()
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	p := &Pagination{
		CurrentPage:  q.Page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: q.Limit,
		HasNextPage:  q.Page < pages,
		HasPrevPage:  q.Page > 1,
	}
	if p.HasNextPage {
		next := q.Page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := q.Page - 1
		p.PrevPage = &prev
	}
	return p
}

// Page is one page of results together with the total match count.
type Page[T any] struct {
	Items []T
	Total int64
	Query PageQuery
}
