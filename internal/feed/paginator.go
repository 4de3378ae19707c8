// Package feed holds the pagination rules shared by every feed page.
package feed

import "strconv"

// DefaultPageSize is the number of posts on one feed page.
const DefaultPageSize = 10

// Page describes one window of an ordered listing. Pages are 1-based and
// a listing always has at least one (possibly empty) page.
type Page struct {
	Number     int   `json:"number"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`

	HasNext            bool `json:"has_next"`
	HasPrevious        bool `json:"has_previous"`
	NextPageNumber     int  `json:"next_page_number,omitempty"`
	PreviousPageNumber int  `json:"previous_page_number,omitempty"`
}

// Offset is the number of items before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the page size.
func (p Page) Limit() int {
	return p.Size
}

// StartIndex is the 1-based index of the first item on the page, 0 when empty.
func (p Page) StartIndex() int64 {
	if p.TotalItems == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

// Paginate clamps requested into [1, last page] for total items.
func Paginate(total int64, requested, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	p := Page{
		Number:      number,
		Size:        size,
		TotalItems:  total,
		TotalPages:  pages,
		HasNext:     number < pages,
		HasPrevious: number > 1,
	}
	if p.HasNext {
		p.NextPageNumber = number + 1
	}
	if p.HasPrevious {
		p.PreviousPageNumber = number - 1
	}
	return p
}

// ParsePageNumber reads a page query value. Anything that is not a positive
// integer is page 1.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
