package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         Pagination
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{name: "defaults", in: Pagination{}, wantPage: 1, wantSize: 10, wantOffset: 0},
		{name: "second page", in: Pagination{Page: 2, PageSize: 5}, wantPage: 2, wantSize: 5, wantOffset: 5},
		{name: "size capped", in: Pagination{Page: 1, PageSize: 1000}, wantPage: 1, wantSize: 100, wantOffset: 0},
		{name: "negative page", in: Pagination{Page: -3, PageSize: 5}, wantPage: 1, wantSize: 5, wantOffset: 0},
		{
			name:       "huge page",
			in:         Pagination{Page: math.MaxInt, PageSize: 10},
			wantPage:   math.MaxInt / 10,
			wantSize:   10,
			wantOffset: (math.MaxInt/10 - 1) * 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in.Normalize(10, 100)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.GreaterOrEqual(t, p.Offset(), 0)
		})
	}
}
