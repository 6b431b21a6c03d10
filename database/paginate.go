package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

type Page[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	TotalPages  int  `json:"total_pages"`
	PrevPage    *int `json:"prev_page"`
	NextPage    *int `json:"next_page"`
	TotalItems  int  `json:"total_items"`
}

// paginate runs query, which may hold ? placeholders, restricted to the
// given 1-based page. A page past the last one has no items.
func paginate[T any](ctx context.Context, db *sqlx.DB, query string, args []any, page, limit int) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var totalItems int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS total_count", query)
	if err := db.GetContext(ctx, &totalItems, db.Rebind(countQuery), args...); err != nil {
		return Page[T]{}, err
	}
	totalPages := (totalItems + limit - 1) / limit

	// pages past the end are empty; not querying them also keeps the
	// offset from overflowing
	items := []T{}
	if page <= totalPages {
		offset := (page - 1) * limit
		pageArgs := append(append([]any(nil), args...), limit, offset)
		if err := db.SelectContext(ctx, &items, db.Rebind(query+" LIMIT ? OFFSET ?"), pageArgs...); err != nil {
			return Page[T]{}, err
		}
	}

	var prevPage, nextPage *int
	if page > 1 {
		p := page - 1
		prevPage = &p
	}
	if page < totalPages {
		p := page + 1
		nextPage = &p
	}

	return Page[T]{
		Items:       items,
		CurrentPage: page,
		PerPage:     limit,
		TotalPages:  totalPages,
		PrevPage:    prevPage,
		NextPage:    nextPage,
		TotalItems:  totalItems,
	}, nil
}
