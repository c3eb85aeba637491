package dto

// PageQuery is the shared page/limit query binding.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps page/limit into usable ranges.
func (q *PageQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Paginated is the envelope every list endpoint returns. TotalPages is
// derived from the same count the page query used.
type Paginated[T any] struct {
	Items       []T   `json:"items"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
}

func NewPaginated[T any](items []T, total int64, page, limit int) *Paginated[T] {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}
	return &Paginated[T]{
		Items:       items,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    limit,
	}
}
