package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

func TestNewPaginationParams(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name        string
		page, limit *int
		want        domain.PaginationParams
	}{
		{"defaults", nil, nil, domain.PaginationParams{Page: 1, Limit: domain.DefaultPageLimit}},
		{"explicit", intp(3), intp(5), domain.PaginationParams{Page: 3, Limit: 5}},
		{"non-positive falls back", intp(0), intp(-2), domain.PaginationParams{Page: 1, Limit: domain.DefaultPageLimit}},
		{"limit clamped", intp(1), intp(500), domain.PaginationParams{Page: 1, Limit: domain.MaxPageLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NewPaginationParams(tt.page, tt.limit))
		})
	}
}

func TestPaginationParams_OffsetAndPages(t *testing.T) {
	p := domain.PaginationParams{Page: 3, Limit: 20}

	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 0, p.Pages(0))
	assert.Equal(t, 1, p.Pages(20))
	assert.Equal(t, 3, p.Pages(41))
}
