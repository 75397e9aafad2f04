package services

import "gorm.io/gorm"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PageRequest asks for a 1-based page of results. Page 0 with limit 0 asks for everything.
type PageRequest struct {
	Page  int
	Limit int
}

// Page is a slice of results plus the numbers a client needs to paginate.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	PageMax int64 `json:"pageMax"`
}

// resolve maps the request to (showAll, zero-based page, limit).
func (r PageRequest) resolve() (bool, int, int) {
	if r.Page == 0 && r.Limit == 0 {
		return true, 0, 0
	}
	page := r.Page - 1
	if page < 0 {
		page = 0
	}
	limit := r.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return false, page, limit
}

// paginate applies the request to q and returns a scope-adjusted query plus the page metadata.
func paginate[T any](q *gorm.DB, req PageRequest, total int64) (*gorm.DB, Page[T]) {
	showAll, page, limit := req.resolve()
	if showAll {
		return q, Page[T]{Page: 1, Limit: int(total), Total: total, PageMax: 1}
	}

	pageMax := total / int64(limit)
	if total%int64(limit) != 0 {
		pageMax++
	}
	return q.Limit(limit).Offset(page * limit), Page[T]{Page: page + 1, Limit: limit, Total: total, PageMax: pageMax}
}
