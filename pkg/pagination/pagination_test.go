package pagination

import "testing"

func TestPaginate_InvariantsHold(t *testing.T) {
	totals := []int{0, 1, 11, 12, 13, 25, 1000}
	pages := []int{-100, -1, 0, 1, 2, 3, 99, 1 << 30}
	for _, n := range totals {
		for _, p := range pages {
			st := Paginate(n, 12, p)
			if st.TotalPages < 1 {
				t.Fatalf("Paginate(%d, 12, %d): TotalPages=%d, want >= 1", n, p, st.TotalPages)
			}
			if st.Page < 1 || st.Page > st.TotalPages {
				t.Fatalf("Paginate(%d, 12, %d): Page=%d outside [1,%d]", n, p, st.Page, st.TotalPages)
			}
		}
	}
}

func TestPaginate_PageZeroClampsToFirst(t *testing.T) {
	// 25 items at size 12 span three pages; page 0 resolves to page 1.
	st := Paginate(25, 12, 0)
	if st.Page != 1 || st.TotalPages != 3 {
		t.Fatalf("got page %d/%d, want 1/3", st.Page, st.TotalPages)
	}
}

func TestPaginate_Idempotent(t *testing.T) {
	st := Paginate(100, 10, 7)
	again := Paginate(100, 10, st.Page)
	if again != st {
		t.Fatalf("re-resolving the current page changed state: %+v vs %+v", again, st)
	}
}

func TestPaginate_EmptySetStillHasOnePage(t *testing.T) {
	st := Paginate(0, 12, 5)
	if st.Page != 1 || st.TotalPages != 1 {
		t.Fatalf("empty set resolved to %d/%d, want 1/1", st.Page, st.TotalPages)
	}
	lo, hi := st.Window(0)
	if lo != 0 || hi != 0 {
		t.Fatalf("empty window = [%d,%d), want [0,0)", lo, hi)
	}
}

func TestPaginate_GuardsBadPageSize(t *testing.T) {
	st := Paginate(5, 0, 1)
	if st.PageSize != 1 || st.TotalPages != 5 {
		t.Fatalf("got %+v, want pageSize guarded to 1 with 5 pages", st)
	}
}

func TestWindow_Bounds(t *testing.T) {
	cases := []struct {
		total, size, page int
		lo, hi            int
	}{
		{25, 12, 1, 0, 12},
		{25, 12, 2, 12, 24},
		{25, 12, 3, 24, 25},
		{12, 12, 1, 0, 12},
		{1, 12, 1, 0, 1},
	}
	for _, c := range cases {
		st := Paginate(c.total, c.size, c.page)
		lo, hi := st.Window(c.total)
		if lo != c.lo || hi != c.hi {
			t.Fatalf("Window(%d items, size %d, page %d) = [%d,%d), want [%d,%d)",
				c.total, c.size, c.page, lo, hi, c.lo, c.hi)
		}
	}
}

func TestHasPrevNext(t *testing.T) {
	first := Paginate(30, 10, 1)
	if first.HasPrev() || !first.HasNext() {
		t.Fatalf("first page: HasPrev=%v HasNext=%v", first.HasPrev(), first.HasNext())
	}
	mid := Paginate(30, 10, 2)
	if !mid.HasPrev() || !mid.HasNext() {
		t.Fatalf("middle page: HasPrev=%v HasNext=%v", mid.HasPrev(), mid.HasNext())
	}
	last := Paginate(30, 10, 3)
	if !last.HasPrev() || last.HasNext() {
		t.Fatalf("last page: HasPrev=%v HasNext=%v", last.HasPrev(), last.HasNext())
	}
	only := Paginate(5, 10, 1)
	if only.HasPrev() || only.HasNext() {
		t.Fatalf("single page: HasPrev=%v HasNext=%v", only.HasPrev(), only.HasNext())
	}
}
