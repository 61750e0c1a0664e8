package service

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/pesona-id/pesona-backend/internal/apperror"
)

// ListQuery carries the normalized collection parameters shared by every
// list endpoint.
type ListQuery struct {
	Page        int
	Limit       int
	Search      string
	IsPublished *bool
	SortBy      string
	OrderBy     string
	Role        string
}

// Offset returns the row offset for the current page.
func (q ListQuery) Offset() int { return (q.Page - 1) * q.Limit }

// Pagination describes the window a list response was cut from.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// NewPagination computes the page summary for a total row count.
func NewPagination(q ListQuery, total int64) Pagination {
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return Pagination{
		Page:    q.Page,
		Limit:   q.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: q.Page < pages,
		HasPrev: q.Page > 1,
	}
}

// ListOptions configures per-resource parsing of list parameters.
type ListOptions struct {
	DefaultLimit   int
	SortKeys       map[string]string // query value -> order expression
	AllowPublished bool
	AllowRole      bool
}

// ParseListQuery validates and normalizes the query string of a list
// endpoint. Unknown sort keys and malformed numbers are rejected with
// field-level validation errors rather than silently defaulted.
func ParseListQuery(values url.Values, opts ListOptions) (ListQuery, error) {
	q := ListQuery{Page: 1, Limit: opts.DefaultLimit, OrderBy: "desc"}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	var fields []apperror.FieldError

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, apperror.FieldError{Form: "page", Message: "page must be a positive integer"})
		} else {
			q.Page = n
		}
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			fields = append(fields, apperror.FieldError{Form: "limit", Message: "limit must be between 1 and 100"})
		} else {
			q.Limit = n
		}
	}

	q.Search = strings.TrimSpace(values.Get("search"))

	if raw := values.Get("sortBy"); raw != "" {
		expr, ok := opts.SortKeys[raw]
		if !ok {
			fields = append(fields, apperror.FieldError{Form: "sortBy", Message: "unsupported sort key"})
		} else {
			q.SortBy = expr
		}
	}

	if raw := values.Get("orderBy"); raw != "" {
		switch strings.ToLower(raw) {
		case "asc", "desc":
			q.OrderBy = strings.ToLower(raw)
		default:
			fields = append(fields, apperror.FieldError{Form: "orderBy", Message: "orderBy must be asc or desc"})
		}
	}

	if opts.AllowPublished {
		if raw := values.Get("isPublished"); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				fields = append(fields, apperror.FieldError{Form: "isPublished", Message: "isPublished must be true or false"})
			} else {
				q.IsPublished = &b
			}
		}
	}

	if opts.AllowRole {
		if raw := values.Get("role"); raw != "" {
			role := strings.ToUpper(raw)
			if role != "USER" && role != "ADMIN" {
				fields = append(fields, apperror.FieldError{Form: "role", Message: "role must be USER or ADMIN"})
			} else {
				q.Role = role
			}
		}
	}

	if len(fields) > 0 {
		return ListQuery{}, apperror.Validation(fields)
	}
	return q, nil
}

// like builds the case-insensitive pattern used by every search filter.
func like(search string) string {
	return "%" + strings.ToLower(search) + "%"
}

// orderExpr combines the resolved sort expression with the direction,
// falling back to the resource default column.
func orderExpr(q ListQuery, fallback string) string {
	expr := q.SortBy
	if expr == "" {
		expr = fallback
	}
	return expr + " " + q.OrderBy
}
