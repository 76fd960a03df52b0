// Package paging normalizes 1-indexed page requests and shapes list results.
package paging

import (
	"math"

	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
)

// MaxOffset caps Offset. Page and Offset both stay within int32 after Normalize.
const MaxOffset = math.MaxInt32 - 1

// Limits bounds the page size a caller may ask for.
type Limits struct {
	Default int
	Max     int
}

func DefaultLimits() Limits {
	return Limits{Default: constants.DefaultPageLimit, Max: constants.MaxPageLimit}
}

// Request is a normalized page request.
type Request struct {
	Page  int
	Limit int
}

func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Normalize clamps page to [1, MaxOffset/limit+1] and limit to (0, Max],
// substituting Default for a missing limit.
func (l Limits) Normalize(page, limit int) Request {
	if l.Default <= 0 {
		l.Default = constants.DefaultPageLimit
	}
	if l.Max <= 0 {
		l.Max = constants.MaxPageLimit
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = l.Default
	}
	if limit > l.Max {
		limit = l.Max
	}
	if maxPage := MaxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	return Request{Page: page, Limit: limit}
}

// Result is the list envelope returned by every paginated endpoint.
type Result[T any] struct {
	Data        []T `json:"data"`
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

func NewResult[T any](data []T, total int, req Request) Result[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if req.Limit > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	return Result[T]{
		Data:        data,
		Total:       total,
		TotalPages:  pages,
		CurrentPage: req.Page,
		Limit:       req.Limit,
	}
}
