package resource

import (
	"errors"
	"math"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps (Number-1)*Size inside a 32-bit int.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// Page is a 1-based offset page.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page and page size query values. Absent or invalid values
// fall back to page 1 and the default size. Both are capped, so a page far
// past the end yields an empty list rather than an overflowed offset.
func ParsePage(page, size string) Page {
	p := Page{Number: 1, Size: DefaultPageSize}
	if n, err := strconv.Atoi(page); n > 0 && (err == nil || errors.Is(err, strconv.ErrRange)) {
		p.Number = n
	}
	if n, err := strconv.Atoi(size); err == nil && n > 0 {
		p.Size = n
	}
	return p.normalized()
}

func (p Page) normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	return p
}

func (p Page) Offset() int {
	p = p.normalized()
	return (p.Number - 1) * p.Size
}
