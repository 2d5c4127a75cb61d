package query

// Page selects one page of a result set. Zero values mean the first page
// with the default size.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"limit"`
}

const defaultPageSize = 50

func (p Page) normalized() Page {
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Number <= 0 {
		p.Number = 1
	}
	return p
}

// Limit returns the row limit for this page.
func (p Page) Limit() int {
	return p.normalized().Size
}

// Offset returns the row offset for this page. Page one starts at zero.
func (p Page) Offset() int {
	n := p.normalized()
	return (n.Number - 1) * n.Size
}

// PageCount returns the number of pages needed to hold total rows.
func PageCount(total int64, size int) int {
	if size <= 0 {
		size = defaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
