package pagination

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params selects a page. Page is 1-based.
type Params struct {
	Page  int `json:"page" validate:"min=1"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

// Normalize fills unset fields with defaults and clamps the limit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of items skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Window returns the [start, end) bounds of this page within total items.
func (p Params) Window(total int) (start, end int) {
	start = p.Offset()
	if start > total {
		start = total
	}
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}
