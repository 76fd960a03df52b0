package paging

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	l := Limits{Default: 10, Max: 50}

	tests := []struct {
		name        string
		page, limit int
		want        Request
		offset      int
	}{
		{"defaults", 0, 0, Request{Page: 1, Limit: 10}, 0},
		{"explicit", 3, 5, Request{Page: 3, Limit: 5}, 10},
		{"clamped", 2, 500, Request{Page: 2, Limit: 50}, 50},
		{"negative", -4, -1, Request{Page: 1, Limit: 10}, 0},
		{"huge page", math.MaxInt64 / 2, 20, Request{Page: MaxOffset/20 + 1, Limit: 20}, MaxOffset / 20 * 20},
		{"max page", math.MaxInt, 1, Request{Page: MaxOffset + 1, Limit: 1}, MaxOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Normalize(tt.page, tt.limit)
			if got != tt.want {
				t.Errorf("Normalize(%d, %d) = %+v, want %+v", tt.page, tt.limit, got, tt.want)
			}
			if got.Offset() != tt.offset {
				t.Errorf("Offset() = %d, want %d", got.Offset(), tt.offset)
			}
		})
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		total, limit, pages int
	}{
		{12, 5, 3},
		{10, 5, 2},
		{0, 5, 0},
		{1, 100, 1},
	}

	for _, tt := range tests {
		r := NewResult([]int{}, tt.total, Request{Page: 2, Limit: tt.limit})
		if r.TotalPages != tt.pages {
			t.Errorf("total=%d limit=%d: TotalPages = %d, want %d", tt.total, tt.limit, r.TotalPages, tt.pages)
		}
		if r.CurrentPage != 2 || r.Limit != tt.limit || r.Total != tt.total {
			t.Errorf("unexpected envelope %+v", r)
		}
	}

	if r := NewResult[string](nil, 0, Request{Page: 1, Limit: 10}); r.Data == nil {
		t.Error("Data must marshal as [] not null")
	}
}
