package dashboard

// Page describes one window of a paginated list.
type Page struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Size       int `json:"size"`
	TotalItems int `json:"totalItems"`
	Start      int `json:"-"`
	End        int `json:"-"`
}

// Paginate computes totalPages = max(1, ceil(n/size)) and clamps requested into
// [1, totalPages].
func Paginate(n, size, requested int) Page {
	if size < 1 {
		size = 1
	}
	total := (n + size - 1) / size
	if total < 1 {
		total = 1
	}
	current := requested
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	start := (current - 1) * size
	if start > n {
		start = n
	}
	end := start + size
	if end > n {
		end = n
	}
	return Page{Current: current, Total: total, Size: size, TotalItems: n, Start: start, End: end}
}

func (p Page) HasPrev() bool { return p.Current > 1 }
func (p Page) HasNext() bool { return p.Current < p.Total }
func (p Page) Prev() int     { return p.Current - 1 }
func (p Page) Next() int     { return p.Current + 1 }

// Slice returns the window of items for the page.
func Slice[T any](items []T, p Page) []T {
	return items[p.Start:p.End]
}

// Window is the strip of page-number links around the current page.
type Window struct {
	Pages      []int `json:"pages"`
	ShowFirst  bool  `json:"showFirst"`
	LeadDots   bool  `json:"leadDots"`
	ShowLast   bool  `json:"showLast"`
	TrailDots  bool  `json:"trailDots"`
	Hidden     bool  `json:"hidden"`
	LastNumber int   `json:"lastNumber"`
}

// Numbers centres up to span page numbers on the current page, shifting the
// strip left near the end. A list that fits on one page hides the control.
func (p Page) Numbers(span int) Window {
	w := Window{LastNumber: p.Total}
	if p.TotalItems <= p.Size {
		w.Hidden = true
		return w
	}
	start := p.Current - span/2
	if start < 1 {
		start = 1
	}
	end := start + span - 1
	if end > p.Total {
		end = p.Total
	}
	if end-start+1 < span {
		start = end - span + 1
		if start < 1 {
			start = 1
		}
	}
	for i := start; i <= end; i++ {
		w.Pages = append(w.Pages, i)
	}
	w.ShowFirst = start > 1
	w.LeadDots = start > 2
	w.ShowLast = end < p.Total
	w.TrailDots = end < p.Total-1
	return w
}
