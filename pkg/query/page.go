package query

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
}

// NewPage clamps number to >= 1 and size to (0, MaxPageSize].
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Limit() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit()
}
