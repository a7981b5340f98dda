// Package pagination slices ordered result sets into numbered pages.
// It knows nothing about storage: callers supply a total and get back
// the half-open [Start, Stop) range to fetch or slice.
package pagination

const (
	// DefaultPageSize is used when a caller passes a non-positive size.
	DefaultPageSize = 10
	// MaxPageSize bounds sizes accepted from request parameters.
	MaxPageSize = 100
)

// Page describes one page of a result set of Total items.
type Page struct {
	Page      int `json:"page"`
	Size      int `json:"per_page"`
	Total     int `json:"total"`
	PageCount int `json:"page_count"`
	Start     int `json:"-"`
	Stop      int `json:"-"`
}

// Paginate computes the bounds of page number page (1-based) over total items.
// Pages below 1 are clamped to 1. A page past the end yields an empty range,
// never an error. PageCount is at least 1, even for an empty result set.
func Paginate(total, page, size int) Page {
	if total < 0 {
		total = 0
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}

	start := (page - 1) * size
	stop := start + size
	if stop > total {
		stop = total
	}
	if start >= total {
		start, stop = total, total
	}

	pageCount := (total + size - 1) / size
	if pageCount < 1 {
		pageCount = 1
	}

	return Page{
		Page:      page,
		Size:      size,
		Total:     total,
		PageCount: pageCount,
		Start:     start,
		Stop:      stop,
	}
}

// Len is the number of items on the page.
func (p Page) Len() int {
	return p.Stop - p.Start
}

// Empty reports whether the page holds no items.
func (p Page) Empty() bool {
	return p.Len() == 0
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Page < p.PageCount
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool {
	return p.Page > 1
}

// Slice returns the items of page p. items must be the full ordered set that
// p was computed over; a shorter slice is clamped rather than panicking.
func Slice[T any](items []T, p Page) []T {
	start, stop := p.Start, p.Stop
	if stop > len(items) {
		stop = len(items)
	}
	if start > stop {
		start = stop
	}
	return items[start:stop]
}
