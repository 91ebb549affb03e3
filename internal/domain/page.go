package domain

// Reservation listings are paged. Page numbers start at 1.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PaginationParams selects one page of a listing.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams reads optional page and limit query values. Missing or
// non-positive values fall back to page 1 and DefaultPageLimit; a limit
// above MaxPageLimit is clamped.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Offset is the number of rows to skip.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages is the number of pages needed to list total rows.
func (p PaginationParams) Pages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
