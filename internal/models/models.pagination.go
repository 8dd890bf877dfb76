// FilePath: internal/models/models.pagination.go
package models

import "math"

// Page is the envelope returned by paginated listings
type Page[T any] struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// Pagination holds 1-indexed, offset-based paging parameters
type Pagination struct {
	Page     int `schema:"page"`
	PageSize int `schema:"page_size"`
}

// Offset returns the number of rows to skip
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Normalize clamps the parameters to valid values
func (p Pagination) Normalize(defaultSize, maxSize int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if maxSize > 0 && p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	// keep Offset from overflowing
	if p.PageSize > 0 && p.Page > math.MaxInt/p.PageSize {
		p.Page = math.MaxInt / p.PageSize
	}
	return p
}
