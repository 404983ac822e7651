package pagination

// State describes one resolved page of a fixed-size paged sequence.
// It is derived data: recomputed from the item count on every navigation
// event, never stored authoritatively anywhere else.
//
// Invariants: TotalPages >= 1 (an empty sequence still has one page) and
// 1 <= Page <= TotalPages.
type State struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	PageSize   int `json:"page_size"`
}

// Paginate resolves a requested page against an item count. It is pure and
// total: any requested page, including zero, negative, or past-the-end values,
// clamps into the valid range. A non-positive pageSize is guarded to 1 so the
// function never divides by zero.
func Paginate(totalItems, pageSize, requestedPage int) State {
	if pageSize < 1 {
		pageSize = 1
	}
	if totalItems < 0 {
		totalItems = 0
	}
	total := (totalItems + pageSize - 1) / pageSize
	if total < 1 {
		total = 1
	}
	page := requestedPage
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	return State{Page: page, TotalPages: total, PageSize: pageSize}
}

// Window returns the [lo, hi) bounds of the current page within a sequence of
// totalItems elements, suitable for slicing. For an empty sequence both bounds
// are zero.
func (s State) Window(totalItems int) (lo, hi int) {
	if totalItems <= 0 || s.PageSize < 1 {
		return 0, 0
	}
	lo = (s.Page - 1) * s.PageSize
	if lo >= totalItems {
		return totalItems, totalItems
	}
	hi = lo + s.PageSize
	if hi > totalItems {
		hi = totalItems
	}
	return lo, hi
}

// HasPrev reports whether a previous page exists.
func (s State) HasPrev() bool { return s.Page > 1 }

// HasNext reports whether a further page exists.
func (s State) HasNext() bool { return s.Page < s.TotalPages }
