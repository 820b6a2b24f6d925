package web

import (
	"net/http"
	"strconv"
	"strings"

	"otterpoint/internal/application/listutil"
	"otterpoint/internal/domain/labels"
)

// listPage is the template model of a filtered, sorted, paginated table.
type listPage struct {
	Title     string
	Path      string
	Query     listutil.Query
	Statuses  []choice
	HasDate   bool
	DateOnly  bool
	Columns   []columnHead
	Rows      []tableRow
	Page      listutil.PageInfo
	PerPage   []choice
	Pages     []choice
	PrevURL   string
	NextURL   string
	ExportURL string
	// NewURL and NewLabel render a create button above the table.
	NewURL   string
	NewLabel string
}

type choice struct {
	Value    string
	Label    string
	URL      string
	Selected bool
}

type columnHead struct {
	Label  string
	URL    string
	Active bool
	Desc   bool
}

type tableRow struct {
	Cells   []string
	Actions []rowAction
}

// rowAction is a link rendered in the last column. A protected row has none.
type rowAction struct {
	Label string
	URL   string
}

// buildList turns a derived view into the shared table model.
// PRE: view was derived with spec
// POST: Every link keeps the current filters; filter and page size links omit the page
func buildList[T any](title, path string, spec listutil.Spec[T], view listutil.View[T], actions func(T) []rowAction) listPage {
	q := view.Query
	p := listPage{
		Title:    title,
		Path:     path,
		Query:    q,
		HasDate:  spec.HasDateFilter(),
		DateOnly: spec.DateOnly,
		Page:     view.Page,
	}
	for _, s := range spec.Statuses {
		p.Statuses = append(p.Statuses, choice{Value: s, Label: labels.Status(s), Selected: s == q.Status})
	}
	for _, c := range spec.Columns {
		p.Columns = append(p.Columns, columnHead{
			Label:  c.Label,
			URL:    path + q.SortURL(c.Key),
			Active: q.Sort == c.Key,
			Desc:   q.Sort == c.Key && q.Dir == listutil.DirDesc,
		})
	}
	for _, row := range view.Rows {
		tr := tableRow{Cells: spec.Cells(row)}
		if actions != nil {
			tr.Actions = actions(row)
		}
		p.Rows = append(p.Rows, tr)
	}
	for _, n := range listutil.PerPageOptions {
		p.PerPage = append(p.PerPage, choice{Value: strconv.Itoa(n), Label: strconv.Itoa(n), URL: path + q.PerPageURL(n), Selected: n == view.Page.PerPage})
	}
	for _, n := range view.Page.PageNumbers() {
		p.Pages = append(p.Pages, choice{Value: strconv.Itoa(n), Label: strconv.Itoa(n), URL: path + q.PageURL(n), Selected: n == view.Page.Page})
	}
	if view.Page.HasPrev() {
		p.PrevURL = path + q.PageURL(view.Page.Page-1)
	}
	if view.Page.HasNext() {
		p.NextURL = path + q.PageURL(view.Page.Page+1)
	}
	return p
}

// withExport sets the export link to the same filters as the page.
func (p listPage) withExport(exportPath string) listPage {
	v := p.Query.FilterValues()
	p.ExportURL = exportPath
	if len(v) > 0 {
		p.ExportURL += "?" + v.Encode()
	}
	return p
}

func (p listPage) withNew(url, label string) listPage {
	p.NewURL, p.NewLabel = url, label
	return p
}

// confirmed reports whether a destructive form was explicitly confirmed.
func confirmed(r *http.Request) bool {
	return strings.EqualFold(r.PostFormValue("confirmed"), "yes")
}
