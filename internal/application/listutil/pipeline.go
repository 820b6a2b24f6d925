package listutil

import (
	"cmp"
	"net/url"
	"slices"
	"strings"
	"time"

	"otterpoint/internal/domain/labels"
	"otterpoint/internal/domain/timestamp"
)

// Column is one displayed and exported field. Value is the single source of
// formatting for both the HTML table and the spreadsheet.
type Column[T any] struct {
	Key     string
	Label   string
	Value   func(T) string
	Compare func(a, b T) int // nil compares Value text
}

// TextColumn builds a column sorted by its text.
func TextColumn[T any](key, label string, value func(T) string) Column[T] {
	return Column[T]{Key: key, Label: label, Value: func(row T) string { return labels.Text(value(row)) }}
}

// NumberColumn builds a column over an optional integer; absent values render
// the placeholder and sort first.
func NumberColumn[T any](key, label string, get func(T) (int64, bool)) Column[T] {
	return Column[T]{
		Key:   key,
		Label: label,
		Value: func(row T) string {
			n, ok := get(row)
			if !ok {
				return labels.Placeholder
			}
			return labels.Int(&n)
		},
		Compare: func(a, b T) int {
			na, oka := get(a)
			nb, okb := get(b)
			if oka != okb {
				if !oka {
					return -1
				}
				return 1
			}
			return cmp.Compare(na, nb)
		},
	}
}

// StampColumn builds a chronologically sorted column; format picks the
// display precision (timestamp.Stamp.Date or timestamp.Stamp.Minute).
func StampColumn[T any](key, label string, get func(T) timestamp.Stamp, format func(timestamp.Stamp) string) Column[T] {
	return Column[T]{
		Key:     key,
		Label:   label,
		Value:   func(row T) string { return format(get(row)) },
		Compare: func(a, b T) int { return timestamp.Compare(get(a), get(b)) },
	}
}

// Spec describes one entity's list page.
type Spec[T any] struct {
	Title    string
	Statuses []string // first entry is the default
	// Status reports whether row belongs to choice. Never called for StatusAll.
	Status func(row T, choice string) bool
	// Timestamp returns the row's filter time; nil disables the date filter.
	Timestamp func(row T) (time.Time, bool)
	DateOnly  bool // the date filter is at date precision
	Keywords  func(row T) []string
	Columns   []Column[T]
}

// SortKeys lists the sortable column keys.
func (s Spec[T]) SortKeys() []string {
	keys := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Headers lists the column labels.
func (s Spec[T]) Headers() []string {
	h := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		h[i] = c.Label
	}
	return h
}

// Cells formats row through every column.
func (s Spec[T]) Cells(row T) []string {
	cells := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cells[i] = c.Value(row)
	}
	return cells
}

// ParseQuery reads the list query for this spec.
func (s Spec[T]) ParseQuery(v url.Values) Query {
	return ParseQuery(v, s.Statuses, s.SortKeys())
}

// HasDateFilter reports whether the page offers a date range.
func (s Spec[T]) HasDateFilter() bool {
	return s.Timestamp != nil
}

func (s Spec[T]) matchStatus(row T, q Query) bool {
	if q.Status == "" || q.Status == StatusAll || s.Status == nil {
		return true
	}
	return s.Status(row, q.Status)
}

// matchDate applies inclusive bounds. Rows without a timestamp are dropped
// once any bound is set.
func (s Spec[T]) matchDate(row T, q Query) bool {
	if s.Timestamp == nil || !q.HasDateRange() {
		return true
	}
	t, ok := s.Timestamp(row)
	if !ok {
		return false
	}
	from, to := q.From, q.To
	if s.DateOnly {
		t = day(t)
		from, to = dayPtr(from), dayPtr(to)
	}
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := day(*t)
	return &d
}

func (s Spec[T]) matchKeyword(row T, q Query) bool {
	if q.Keyword == "" || s.Keywords == nil {
		return true
	}
	needle := strings.ToLower(q.Keyword)
	for _, field := range s.Keywords(row) {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Filter applies the status, date and keyword stages. The stages are
// independent predicates so their order does not affect the result.
// PRE: none
// POST: returns a new slice; rows is not modified
func Filter[T any](rows []T, spec Spec[T], q Query) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if spec.matchStatus(row, q) && spec.matchDate(row, q) && spec.matchKeyword(row, q) {
			out = append(out, row)
		}
	}
	return out
}

// Sort orders rows in place by the query's column. Equal keys keep their
// relative order. An empty or unknown sort key leaves rows untouched.
func Sort[T any](rows []T, spec Spec[T], q Query) {
	i := slices.IndexFunc(spec.Columns, func(c Column[T]) bool { return c.Key == q.Sort })
	if q.Sort == "" || i < 0 {
		return
	}
	col := spec.Columns[i]
	compare := col.Compare
	if compare == nil {
		compare = func(a, b T) int { return strings.Compare(col.Value(a), col.Value(b)) }
	}
	slices.SortStableFunc(rows, func(a, b T) int {
		if q.Dir == DirDesc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

// View is the derived state of a list page.
type View[T any] struct {
	Query    Query
	Filtered []T // filtered and sorted, before pagination; the export set
	Rows     []T // the current page
	Page     PageInfo
}

// Derive runs the full pipeline: filter, sort, paginate.
// PRE: none
// POST: Rows is a window of Filtered; Query.Page equals Page.Page
func Derive[T any](rows []T, spec Spec[T], q Query) View[T] {
	filtered := Filter(rows, spec, q)
	Sort(filtered, spec, q)
	info := NewPageInfo(q.Page, q.PerPage, len(filtered))
	q.Page = info.Page
	q.PerPage = info.PerPage
	return View[T]{
		Query:    q,
		Filtered: filtered,
		Rows:     filtered[info.Offset():info.EndRow()],
		Page:     info,
	}
}

// MatchActive implements Spec.Status for entities with an active flag.
func MatchActive(active bool, choice string) bool {
	switch choice {
	case StatusActive:
		return active
	case StatusInactive:
		return !active
	}
	return true
}
