package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"otterpoint/internal/domain/timestamp"
)

// Status filter choices shared by entities with an active flag.
const (
	StatusAll      = "ALL"
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// ActiveStatuses is the status choice list for active-flag entities; ACTIVE is the default.
var ActiveStatuses = []string{StatusActive, StatusInactive, StatusAll}

// Sort directions
const (
	DirAsc  = "asc"
	DirDesc = "desc"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 10

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100}

// Query carries every list view input parsed from a request.
type Query struct {
	Status  string
	From    *time.Time
	To      *time.Time
	Keyword string
	Sort    string
	Dir     string
	Page    int // 1-indexed
	PerPage int
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PerPage)
}

// ParseQuery reads status, from, to, q, sort, dir, page and per_page.
// Unknown statuses, unparseable dates, unknown sort columns and page sizes
// outside PerPageOptions fall back to defaults.
// PRE: statuses is non-empty; its first entry is the default
// POST: returns a Query with Page >= 1 and a valid PerPage and Dir
func ParseQuery(v url.Values, statuses []string, sortable []string) Query {
	q := Query{
		Status:  v.Get("status"),
		Keyword: strings.TrimSpace(v.Get("q")),
		Sort:    v.Get("sort"),
		Dir:     v.Get("dir"),
	}
	if !slices.Contains(statuses, q.Status) {
		q.Status = ""
		if len(statuses) > 0 {
			q.Status = statuses[0]
		}
	}
	if t, ok := timestamp.Parse(v.Get("from")); ok {
		q.From = &t
	}
	if t, ok := timestamp.Parse(v.Get("to")); ok {
		q.To = &t
	}
	if !slices.Contains(sortable, q.Sort) {
		q.Sort = ""
	}
	if q.Dir != DirAsc && q.Dir != DirDesc {
		q.Dir = DirAsc
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	if q.Page < 1 {
		q.Page = 1
	}
	q.PerPage, _ = strconv.Atoi(v.Get("per_page"))
	if !slices.Contains(PerPageOptions, q.PerPage) {
		q.PerPage = DefaultPerPage
	}
	return q
}

// HasDateRange reports whether either bound is set.
func (q Query) HasDateRange() bool {
	return q.From != nil || q.To != nil
}

// FilterValues encodes status, date range, keyword, sort and page size. The
// page index is deliberately absent: links built from it land on page 1.
func (q Query) FilterValues() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.From != nil {
		v.Set("from", q.From.Format(timestamp.InputLayout))
	}
	if q.To != nil {
		v.Set("to", q.To.Format(timestamp.InputLayout))
	}
	if q.Keyword != "" {
		v.Set("q", q.Keyword)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
		v.Set("dir", q.Dir)
	}
	if q.PerPage != DefaultPerPage {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// PageURL returns the query string for page n with all filters kept.
func (q Query) PageURL(n int) string {
	v := q.FilterValues()
	if n > 1 {
		v.Set("page", strconv.Itoa(n))
	}
	return "?" + v.Encode()
}

// PerPageURL returns the query string for page size n, restarting at page 1.
func (q Query) PerPageURL(n int) string {
	q.PerPage = n
	return "?" + q.FilterValues().Encode()
}

// SortURL returns the query string that sorts by col, toggling the
// direction when col is already active. Sorting restarts at page 1.
func (q Query) SortURL(col string) string {
	dir := DirAsc
	if q.Sort == col && q.Dir == DirAsc {
		dir = DirDesc
	}
	q.Sort, q.Dir = col, dir
	return "?" + q.FilterValues().Encode()
}

// FromInput formats the lower bound for a datetime-local input.
func (q Query) FromInput() string {
	if q.From == nil {
		return ""
	}
	return q.From.Format(timestamp.InputLayout)
}

// ToInput formats the upper bound for a datetime-local input.
func (q Query) ToInput() string {
	if q.To == nil {
		return ""
	}
	return q.To.Format(timestamp.InputLayout)
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages >= 1; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// PRE: PageInfo is valid
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// PageNumbers returns at most 5 page numbers centered on the current page.
// PRE: PageInfo is valid
// POST: Returns ascending page numbers within [1, TotalPages]
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := max(p.Page-maxButtons/2, 1)
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(end-maxButtons+1, 1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination returns true if pagination controls should be displayed.
func (p PageInfo) ShowPagination() bool {
	return p.Total > p.PerPage
}
